package decode_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rowshape/pkg/decode"
	"github.com/leapstack-labs/rowshape/pkg/source"
)

func TestDecode_ScalarWidening(t *testing.T) {
	// An int4 column must decode into any integer target wide enough for
	// the value.
	row := source.NewBuffered().Col("n", "INT4", int32(42))

	n16, err := decode.Decode[int16](row)
	require.NoError(t, err)
	assert.Equal(t, int16(42), n16)

	n32, err := decode.Decode[int32](row)
	require.NoError(t, err)
	assert.Equal(t, int32(42), n32)

	n64, err := decode.Decode[int64](row)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n64)

	f, err := decode.Decode[float64](row)
	require.NoError(t, err)
	assert.Equal(t, float64(42), f)
}

func TestDecode_ScalarFromText(t *testing.T) {
	// Sources that hand back wire text must decode the same as native
	// driver payloads.
	row := source.NewBuffered().Col("n", "INT8", []byte("9001"))
	n, err := decode.Decode[int64](row)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), n)

	row = source.NewBuffered().Col("ok", "BOOL", "t")
	b, err := decode.Decode[bool](row)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestDecode_NullLaw(t *testing.T) {
	row := source.NewBuffered().NullCol("n", "INT4")

	opt, err := decode.Decode[*int32](row)
	require.NoError(t, err)
	assert.Nil(t, opt)

	_, err = decode.Decode[int32](row)
	require.Error(t, err)
	var mismatch *decode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "int32", mismatch.Target)
}

func TestDecode_OptionalPresent(t *testing.T) {
	row := source.NewBuffered().Col("s", "TEXT", "hello")
	opt, err := decode.Decode[*string](row)
	require.NoError(t, err)
	require.NotNil(t, opt)
	assert.Equal(t, "hello", *opt)
}

func TestDecode_ArrayLaw(t *testing.T) {
	// ["a", null] with optional elements: order and null positions preserved.
	row := source.NewBuffered().Col("tags", "TEXT[]", `{a,NULL}`)

	got, err := decode.Decode[[]*string](row)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0])
	assert.Equal(t, "a", *got[0])
	assert.Nil(t, got[1])

	// The same array into non-optional elements fails as a whole.
	_, err = decode.Decode[[]string](row)
	require.Error(t, err)
	var mismatch *decode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Reason, "unexpected null in non-optional array element")
}

func TestDecode_ArrayQuotedElements(t *testing.T) {
	row := source.NewBuffered().Col("tags", "TEXT[]", `{"with, comma","esc \"q\"",NULL,"NULL"}`)
	got, err := decode.Decode[[]*string](row)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "with, comma", *got[0])
	assert.Equal(t, `esc "q"`, *got[1])
	assert.Nil(t, got[2])
	// A quoted "NULL" is the string, not an in-array null.
	require.NotNil(t, got[3])
	assert.Equal(t, "NULL", *got[3])
}

func TestDecode_IntArrayFromDriverSlice(t *testing.T) {
	row := source.NewBuffered().Col("ns", "INT4[]", []any{int32(1), nil, int32(3)})
	got, err := decode.Decode[[]*int32](row)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int32(1), *got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, int32(3), *got[2])
}

func TestDecode_BinaryWirePayloads(t *testing.T) {
	// The extended query protocol returns most scalars in binary format;
	// those wire forms must decode the same as their text counterparts.
	row := source.NewBuffered().BinaryCol("n", "INT4", []byte{0, 0, 0, 42})
	n, err := decode.Decode[int32](row)
	require.NoError(t, err)
	assert.Equal(t, int32(42), n)

	row = source.NewBuffered().BinaryCol("ok", "BOOL", []byte{1})
	b, err := decode.Decode[bool](row)
	require.NoError(t, err)
	assert.True(t, b)

	bits := make([]byte, 8)
	binary.BigEndian.PutUint64(bits, math.Float64bits(2.5))
	row = source.NewBuffered().BinaryCol("f", "FLOAT8", bits)
	f, err := decode.Decode[float64](row)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	// Character types carry the same bytes in both formats.
	row = source.NewBuffered().BinaryCol("s", "TEXT", []byte("ada"))
	s, err := decode.Decode[string](row)
	require.NoError(t, err)
	assert.Equal(t, "ada", s)
}

func TestDecode_EnvelopeLaw(t *testing.T) {
	payload := []byte(`{"a":1,"b":"two"}`)

	// Binary-variant JSONB without its version byte is a format error.
	row := source.NewBuffered().BinaryCol("doc", "JSONB", payload)
	_, err := decode.Decode[map[string]any](row)
	var format *decode.FormatError
	require.ErrorAs(t, err, &format)

	// A valid version byte is stripped, and the result matches the text
	// variant of the same payload.
	enveloped := append([]byte{1}, payload...)
	binRow := source.NewBuffered().BinaryCol("doc", "JSONB", enveloped)
	fromBinary, err := decode.Decode[map[string]any](binRow)
	require.NoError(t, err)

	textRow := source.NewBuffered().Col("doc", "JSONB", payload)
	fromText, err := decode.Decode[map[string]any](textRow)
	require.NoError(t, err)

	assert.Equal(t, fromText, fromBinary)
	assert.Equal(t, map[string]any{"a": float64(1), "b": "two"}, fromBinary)
}

type triple struct {
	One   float64 `db:"one"`
	Two   float64 `db:"two"`
	Three float64 `db:"three"`
}

func TestDecode_ReconciliationDirect(t *testing.T) {
	// All field names present as keys: decode the object directly.
	row := source.NewBuffered().Col("doc", "JSON", `{"one":1,"two":2,"three":3}`)
	got, err := decode.Decode[triple](row)
	require.NoError(t, err)
	assert.Equal(t, triple{One: 1, Two: 2, Three: 3}, got)
}

func TestDecode_ReconciliationWrap(t *testing.T) {
	// Single-field target whose name is absent from the object: the object
	// becomes that field's value.
	type outer struct {
		JSONRecord triple `db:"json_record"`
	}
	row := source.NewBuffered().Col("doc", "JSON", `{"one":1,"two":2,"three":3}`)
	got, err := decode.Decode[outer](row)
	require.NoError(t, err)
	assert.Equal(t, triple{One: 1, Two: 2, Three: 3}, got.JSONRecord)
}

func TestDecode_ReconciliationMissingKeys(t *testing.T) {
	row := source.NewBuffered().Col("doc", "JSON", `{"one":1}`)
	_, err := decode.Decode[triple](row)
	require.Error(t, err)
	var mismatch *decode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Reason, "two")
	assert.Contains(t, mismatch.Reason, "three")
}

func TestDecode_BareDocumentScalar(t *testing.T) {
	// Non-object documents bypass reconciliation and decode directly.
	row := source.NewBuffered().Col("doc", "JSON", `[1,2,3]`)
	got, err := decode.Decode[[]int](row)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	row = source.NewBuffered().Col("doc", "JSON", `"plain"`)
	s, err := decode.Decode[string](row)
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestDecode_RecordEndToEnd(t *testing.T) {
	type record struct {
		FirstField  bool  `db:"first_field"`
		SecondField int32 `db:"second_field"`
	}
	row := source.NewBuffered().
		Col("first_field", "BOOL", true).
		Col("second_field", "INT4", int32(42))

	got, err := decode.Decode[record](row)
	require.NoError(t, err)
	assert.Equal(t, record{FirstField: true, SecondField: 42}, got)
}

func TestDecodeTuple(t *testing.T) {
	row := source.NewBuffered().
		Col("first_field", "BOOL", true).
		Col("second_field", "INT4", int32(42))

	var b bool
	var n int32
	require.NoError(t, decode.DecodeTuple(row, &b, &n))
	assert.True(t, b)
	assert.Equal(t, int32(42), n)

	// Arity must match exactly.
	err := decode.DecodeTuple(row, &b)
	require.Error(t, err)
	var mismatch *decode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDecode_MapPreservesOrderAndDuplicates(t *testing.T) {
	row := source.NewBuffered().
		Col("first_field", "BOOL", true).
		Col("second_field", "INT4", int32(42)).
		Col("second_field", "INT4", int32(43))

	got, err := decode.Decode[map[string]any](row)
	require.NoError(t, err)
	// Duplicate names are both visited; the rightmost wins in a map target.
	assert.Equal(t, map[string]any{
		"first_field":  true,
		"second_field": int32(43),
	}, got)
}

func TestDecode_Flatten(t *testing.T) {
	type address struct {
		City string `db:"city"`
		Zip  string `db:"zip"`
	}
	type person struct {
		Name    string  `db:"name"`
		Address address `db:",flatten"`
	}
	row := source.NewBuffered().
		Col("name", "TEXT", "ada").
		Col("city", "TEXT", "london").
		Col("zip", "TEXT", "n1")

	got, err := decode.Decode[person](row)
	require.NoError(t, err)
	assert.Equal(t, person{Name: "ada", Address: address{City: "london", Zip: "n1"}}, got)
}

func TestDecode_UnitValue(t *testing.T) {
	got, err := decode.Decode[struct{}](source.NewBuffered())
	require.NoError(t, err)
	assert.Equal(t, struct{}{}, got)
}

func TestDecode_NewtypeWrapper(t *testing.T) {
	type userID int64
	row := source.NewBuffered().Col("id", "INT8", int64(7))
	got, err := decode.Decode[userID](row)
	require.NoError(t, err)
	assert.Equal(t, userID(7), got)
}

func TestDecode_MultiColumnIntoScalarFails(t *testing.T) {
	row := source.NewBuffered().
		Col("a", "INT4", int32(1)).
		Col("b", "INT4", int32(2))
	_, err := decode.Decode[int32](row)
	require.Error(t, err)
	var mismatch *decode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDecode_RowAsSlice(t *testing.T) {
	// N>1 columns with a sequence target use the positional view.
	row := source.NewBuffered().
		Col("a", "INT4", int32(1)).
		Col("b", "INT4", int32(2))
	got, err := decode.Decode[[]int32](row)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, got)
}

func TestDecode_StructFromJSONArrayElements(t *testing.T) {
	// Documents inside arrays re-enter the generic protocol.
	type item struct {
		Name string `db:"name"`
	}
	row := source.NewBuffered().Col("items", "JSON[]", `{"{\"name\": \"a\"}","{\"name\": \"b\"}"}`)
	got, err := decode.Decode[[]item](row)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, got)
}

func TestDecode_SkipsUnmatchedColumns(t *testing.T) {
	type record struct {
		Name string `db:"name"`
	}
	row := source.NewBuffered().
		Col("name", "TEXT", "ada").
		Col("ignored", "TEXT", "x")
	got, err := decode.Decode[record](row)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)
}

func TestDecode_AccessErrorPropagates(t *testing.T) {
	row := source.NewBuffered().Col("a", "INT4", int32(1))
	_, err := row.Value(5)
	require.Error(t, err)
}
