package decode

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func be32(n int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}

func be64(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func TestDecodeBinaryScalar_FixedWidth(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		b    []byte
		want any
	}{
		{"bool true", "BOOL", []byte{1}, true},
		{"bool false", "BOOL", []byte{0}, false},
		{"int2", "INT2", []byte{0x01, 0x00}, int16(256)},
		{"int4", "INT4", be32(42), int32(42)},
		{"int4 negative", "INT4", be32(-7), int32(-7)},
		{"int8", "INT8", be64(1 << 40), int64(1 << 40)},
		{"float4", "FLOAT4", be32(int32(math.Float32bits(1.5))), float32(1.5)},
		{"float8", "FLOAT8", be64(int64(math.Float64bits(2.25))), float64(2.25)},
		{"bytea is raw bytes", "BYTEA", []byte(`\xnot hex`), []byte(`\xnot hex`)},
		{"uuid", "UUID", []byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}, "550e8400-e29b-41d4-a716-446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prim, handled, err := decodeBinaryScalar(tt.tag, tt.b)
			require.NoError(t, err)
			require.True(t, handled)
			assert.Equal(t, tt.want, prim)
		})
	}
}

func TestDecodeBinaryScalar_Temporal(t *testing.T) {
	ts := time.Date(2024, 3, 9, 13, 14, 15, 0, time.UTC)
	prim, handled, err := decodeBinaryScalar("TIMESTAMPTZ", be64(ts.Sub(pgEpoch).Microseconds()))
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "2024-03-09T13:14:15+00:00", prim)

	days := int32(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC).Sub(pgEpoch) / (24 * time.Hour))
	prim, handled, err = decodeBinaryScalar("DATE", be32(days))
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "2024-03-09", prim)

	micros := int64(((13*60+14)*60 + 15)) * 1_000_000
	prim, handled, err = decodeBinaryScalar("TIME", be64(micros))
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "13:14:15", prim)
}

func TestDecodeBinaryScalar_Interval(t *testing.T) {
	// 1h in microseconds, 1 day, 5 months; months drop from the fold.
	b := append(be64(3_600_000_000), be32(1)...)
	b = append(b, be32(5)...)
	prim, handled, err := decodeBinaryScalar("INTERVAL", b)
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "25h0m0s", prim)
}

func TestDecodeBinaryScalar_Numeric(t *testing.T) {
	// 12.5: two base-10000 digit groups (12, 5000), weight 0, positive,
	// display scale 1.
	b := []byte{0, 2, 0, 0, 0, 0, 0, 1, 0, 12, 0x13, 0x88}
	prim, handled, err := decodeBinaryScalar("NUMERIC", b)
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, float64(12.5), prim)
}

func TestDecodeBinaryScalar_TextTypesPassThrough(t *testing.T) {
	for _, tag := range []string{"TEXT", "VARCHAR", "CITEXT"} {
		_, handled, err := decodeBinaryScalar(tag, []byte("ada"))
		require.NoError(t, err)
		assert.False(t, handled, "tag %s", tag)
	}
}

func TestDecodeBinaryScalar_BadLength(t *testing.T) {
	_, _, err := decodeBinaryScalar("INT4", []byte{0, 0})
	var driverErr *DriverDecodeError
	require.ErrorAs(t, err, &driverErr)
	assert.Equal(t, "INT4", driverErr.Tag)
}

func TestSplitArrayBinary(t *testing.T) {
	b := be32(1)                               // ndim
	b = append(b, be32(1)...)                  // has-null flag
	b = append(b, be32(int32(pgtype.Int4OID))...) // element oid
	b = append(b, be32(3)...)                  // count
	b = append(b, be32(1)...)                  // lower bound
	b = append(b, be32(4)...)
	b = append(b, be32(7)...)
	b = append(b, be32(-1)...) // null element
	b = append(b, be32(4)...)
	b = append(b, be32(9)...)

	elems, err := splitArrayBinary("INT4", b)
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, BinaryFormat, elems[0].format)
	assert.Equal(t, []byte{0, 0, 0, 7}, elems[0].raw)
	assert.True(t, elems[1].null)
	assert.Equal(t, []byte{0, 0, 0, 9}, elems[2].raw)
}

func TestSplitArrayBinary_Empty(t *testing.T) {
	b := be32(0)              // ndim 0: empty array
	b = append(b, be32(0)...) // has-null flag
	b = append(b, be32(int32(pgtype.Int4OID))...)
	elems, err := splitArrayBinary("INT4", b)
	require.NoError(t, err)
	assert.Empty(t, elems)
}

func TestSplitArrayBinary_Malformed(t *testing.T) {
	var driverErr *DriverDecodeError

	_, err := splitArrayBinary("INT4", []byte{0, 0})
	require.ErrorAs(t, err, &driverErr)

	// Two dimensions.
	b := append(be32(2), make([]byte, 24)...)
	_, err = splitArrayBinary("INT4", b)
	require.ErrorAs(t, err, &driverErr)

	// Element payload shorter than its declared length.
	b = be32(1)
	b = append(b, be32(0)...)
	b = append(b, be32(int32(pgtype.Int4OID))...)
	b = append(b, be32(1)...) // count
	b = append(b, be32(1)...) // lower bound
	b = append(b, be32(4)...) // element length
	b = append(b, 0x01)       // only one byte follows
	_, err = splitArrayBinary("INT4", b)
	require.ErrorAs(t, err, &driverErr)
}
