package decode

import (
	"fmt"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Decode decodes one row into T. The target shape is taken from T itself:
// scalars, pointers (optional values), structs (records, with `db` tags and
// the flatten option), string-keyed maps, slices, fixed-size arrays and named
// types over primitives are all legal, recursively.
//
// A decode is atomic: it returns a fully assembled value or an error, holds
// no state across calls, and consumes exactly the columns its shape requires.
func Decode[T any](row Row) (T, error) {
	var zero T
	dst := reflect.New(reflect.TypeOf(&zero).Elem()).Elem()
	if err := decodeRow(row, dst); err != nil {
		return zero, err
	}
	return dst.Interface().(T), nil
}

// DecodeTuple decodes a row positionally, one destination pointer per column,
// in the manner of sql.Rows.Scan. The destination count must match the
// column count exactly.
func DecodeTuple(row Row, dests ...any) error {
	if len(dests) != row.Len() {
		return &TypeMismatchError{
			Target: "tuple",
			Reason: fmt.Sprintf("row has %d columns, %d destinations given", row.Len(), len(dests)),
		}
	}
	for i, d := range dests {
		dv := reflect.ValueOf(d)
		if !dv.IsValid() || dv.Kind() != reflect.Pointer || dv.IsNil() {
			return &TypeMismatchError{
				Target: fmt.Sprintf("destination %d", i),
				Reason: "destination must be a non-nil pointer",
			}
		}
		v, err := row.Value(i)
		if err != nil {
			return &AccessError{Index: i, Err: err}
		}
		if err := decodeValue(v, dv.Elem()); err != nil {
			return err
		}
	}
	return nil
}

// decodeRow is the shape negotiation: it picks a strategy once per call from
// the column count, the first column's type tag and the target's kind, then
// dispatches.
func decodeRow(row Row, dst reflect.Value) error {
	if row.Len() == 0 {
		// Unit value: nothing to consume.
		dst.SetZero()
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		v0, err := row.Value(0)
		if err != nil {
			return &AccessError{Index: 0, Err: err}
		}
		if v0.IsNull() {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeRow(row, dst.Elem())
	}

	t := dst.Type()
	switch {
	case t.Kind() == reflect.Map:
		if row.Len() == 1 {
			v0, err := row.Value(0)
			if err != nil {
				return &AccessError{Index: 0, Err: err}
			}
			// A lone document column is the mapping itself, not a
			// one-entry row view over it.
			if isDocumentTag(normalizeTag(v0.Tag())) {
				return decodeValue(v0, dst)
			}
		}
		return decodeMapView(row, dst)

	case isRecordType(t):
		if row.Len() == 1 {
			v0, err := row.Value(0)
			if err != nil {
				return &AccessError{Index: 0, Err: err}
			}
			// A single document column against a structured record target
			// overrides the column-count heuristic and routes through
			// document reconciliation.
			if isDocumentTag(normalizeTag(v0.Tag())) {
				return decodeValue(v0, dst)
			}
		}
		return decodeMapView(row, dst)

	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		if row.Len() == 1 {
			v0, err := row.Value(0)
			if err != nil {
				return &AccessError{Index: 0, Err: err}
			}
			tag := normalizeTag(v0.Tag())
			if isArrayTag(tag) || isDocumentTag(tag) {
				return decodeValue(v0, dst)
			}
		}
		return decodeSeqView(row, dst)

	case t.Kind() == reflect.Interface:
		if row.Len() == 1 {
			v0, err := row.Value(0)
			if err != nil {
				return &AccessError{Index: 0, Err: err}
			}
			return decodeValue(v0, dst)
		}
		return decodeSeqView(row, dst)

	default:
		if row.Len() > 1 {
			return &TypeMismatchError{
				Target: t.String(),
				Reason: fmt.Sprintf("cannot decode %d columns into a scalar target", row.Len()),
			}
		}
		v0, err := row.Value(0)
		if err != nil {
			return &AccessError{Index: 0, Err: err}
		}
		return decodeValue(v0, dst)
	}
}

// decodeValue decodes a single column value (or array element, or document
// node wrapper) into dst. Every shape recursion funnels through here, which
// is what lets arrays hold documents, documents hold records, and so on.
func decodeValue(v Value, dst reflect.Value) error {
	if dst.Kind() == reflect.Pointer {
		if v.IsNull() {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeValue(v, dst.Elem())
	}

	tag := normalizeTag(v.Tag())
	if v.IsNull() {
		if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
			dst.SetZero()
			return nil
		}
		return &TypeMismatchError{
			Target: dst.Type().String(),
			Tag:    tag,
			Reason: "null value in non-optional position",
		}
	}

	switch {
	case isArrayTag(tag):
		return decodeArray(tag, v, dst)

	case isDocumentTag(tag):
		doc, err := parseDocument(tag, v)
		if err != nil {
			return err
		}
		if isRecordType(dst.Type()) {
			return reconcileDocument(doc, dst)
		}
		return decodeDocumentValue(doc, dst)

	default:
		raw := v.Raw()
		if v.Format() == BinaryFormat {
			if b, ok := raw.([]byte); ok {
				prim, handled, err := decodeBinaryScalar(tag, b)
				if err != nil {
					return err
				}
				if handled {
					return assignScalar(dst, prim, tag)
				}
			}
		}
		prim, err := decodeScalar(tag, raw)
		if err != nil {
			return err
		}
		return assignScalar(dst, prim, tag)
	}
}

// isRecordType reports whether t decodes as a named-field record. time.Time
// is a struct but never a record target.
func isRecordType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType
}
