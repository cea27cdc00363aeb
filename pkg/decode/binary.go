package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// pgEpoch is the epoch of the binary date and timestamp wire forms.
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// numericMap decodes the variable-length NUMERIC wire form; everything else
// in this file is a fixed-width read.
var numericMap = pgtype.NewMap()

// decodeBinaryScalar converts a binary wire-format payload straight into an
// engine primitive. handled is false for tags whose binary and text forms are
// the same bytes (the character types and unrecognized tags), which take the
// text path instead.
func decodeBinaryScalar(tag string, b []byte) (prim any, handled bool, err error) {
	switch tag {
	case "BOOL", "BOOLEAN":
		if err := wantLen(tag, "bool", b, 1); err != nil {
			return nil, false, err
		}
		return b[0] != 0, true, nil

	case "INT2", "SMALLINT":
		if err := wantLen(tag, "int16", b, 2); err != nil {
			return nil, false, err
		}
		return int16(binary.BigEndian.Uint16(b)), true, nil

	case "INT4", "INT", "INTEGER":
		if err := wantLen(tag, "int32", b, 4); err != nil {
			return nil, false, err
		}
		return int32(binary.BigEndian.Uint32(b)), true, nil

	case "INT8", "BIGINT":
		if err := wantLen(tag, "int64", b, 8); err != nil {
			return nil, false, err
		}
		return int64(binary.BigEndian.Uint64(b)), true, nil

	case "FLOAT4", "REAL":
		if err := wantLen(tag, "float32", b, 4); err != nil {
			return nil, false, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), true, nil

	case "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		if err := wantLen(tag, "float64", b, 8); err != nil {
			return nil, false, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), true, nil

	case "NUMERIC", "DECIMAL":
		var n pgtype.Numeric
		if err := numericMap.Scan(pgtype.NumericOID, pgtype.BinaryFormatCode, b, &n); err != nil {
			return nil, false, &DriverDecodeError{Target: "float64", Tag: tag, Err: err}
		}
		f, err := n.Float64Value()
		if err != nil {
			return nil, false, &DriverDecodeError{Target: "float64", Tag: tag, Err: err}
		}
		return f.Float64, true, nil

	case "DATE":
		if err := wantLen(tag, "string", b, 4); err != nil {
			return nil, false, err
		}
		days := int32(binary.BigEndian.Uint32(b))
		return pgEpoch.AddDate(0, 0, int(days)).Format(dateLayout), true, nil

	case "TIME":
		if err := wantLen(tag, "string", b, 8); err != nil {
			return nil, false, err
		}
		micros := int64(binary.BigEndian.Uint64(b))
		t := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(micros) * time.Microsecond)
		return t.Format(timeLayout), true, nil

	case "TIMETZ":
		if err := wantLen(tag, "string", b, 12); err != nil {
			return nil, false, err
		}
		micros := int64(binary.BigEndian.Uint64(b[:8]))
		// Zone is seconds west of UTC on the wire; FixedZone counts east.
		zone := int32(binary.BigEndian.Uint32(b[8:12]))
		loc := time.FixedZone("", -int(zone))
		t := time.Date(0, 1, 1, 0, 0, 0, 0, loc).Add(time.Duration(micros) * time.Microsecond)
		return t.Format(timeLayout + "-07:00"), true, nil

	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		if err := wantLen(tag, "string", b, 8); err != nil {
			return nil, false, err
		}
		micros := int64(binary.BigEndian.Uint64(b))
		return pgEpoch.Add(time.Duration(micros) * time.Microsecond).Format(rfc3339Offset), true, nil

	case "INTERVAL":
		if err := wantLen(tag, "string", b, 16); err != nil {
			return nil, false, err
		}
		iv := pgtype.Interval{
			Microseconds: int64(binary.BigEndian.Uint64(b[:8])),
			Days:         int32(binary.BigEndian.Uint32(b[8:12])),
			Months:       int32(binary.BigEndian.Uint32(b[12:16])),
			Valid:        true,
		}
		return intervalString(iv), true, nil

	case "UUID":
		if err := wantLen(tag, "string", b, 16); err != nil {
			return nil, false, err
		}
		return uuid.UUID([16]byte(b)).String(), true, nil

	case "BYTEA", "BLOB":
		// Binary bytea is the raw bytes, no \x prefix.
		return b, true, nil

	default:
		return nil, false, nil
	}
}

func wantLen(tag, target string, b []byte, n int) error {
	if len(b) != n {
		return &DriverDecodeError{
			Target: target,
			Tag:    tag,
			Err:    fmt.Errorf("binary payload is %d bytes, want %d", len(b), n),
		}
	}
	return nil
}

// splitArrayBinary parses the binary array wire form: a dimension header
// followed by length-prefixed elements. Elements stay in binary format for
// the element decode. Multidimensional payloads are rejected; the engine's
// sequence targets are one-dimensional.
func splitArrayBinary(etag string, b []byte) ([]arrayElem, error) {
	atag := etag + "[]"
	if len(b) < 12 {
		return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("binary array header truncated (%d bytes)", len(b))}
	}
	// Header: ndim, has-null flag, element OID; only ndim changes the parse.
	ndim := int32(binary.BigEndian.Uint32(b[0:4]))
	switch {
	case ndim == 0:
		return nil, nil
	case ndim != 1:
		return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("%d-dimensional binary array not supported", ndim)}
	}
	if len(b) < 20 {
		return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("binary array dimension truncated (%d bytes)", len(b))}
	}
	count := int(int32(binary.BigEndian.Uint32(b[12:16])))
	if count < 0 {
		return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("negative element count %d", count)}
	}

	off := 20
	elems := make([]arrayElem, 0, count)
	for i := 0; i < count; i++ {
		if len(b) < off+4 {
			return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("element %d length truncated", i)}
		}
		n := int(int32(binary.BigEndian.Uint32(b[off : off+4])))
		off += 4
		if n == -1 {
			elems = append(elems, arrayElem{tag: etag, format: BinaryFormat, null: true})
			continue
		}
		if n < 0 || len(b) < off+n {
			return nil, &DriverDecodeError{Target: "array", Tag: atag, Err: fmt.Errorf("element %d payload truncated", i)}
		}
		elems = append(elems, arrayElem{tag: etag, format: BinaryFormat, raw: b[off : off+n]})
		off += n
	}
	return elems, nil
}
