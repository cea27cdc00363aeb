package decode

import (
	"fmt"
	"reflect"
)

// decodeMapView exposes the row's columns as a name-keyed mapping. Iteration
// follows column declaration order; duplicate column names are all visited,
// so for map targets the rightmost column wins. Columns without a matching
// record field are skipped.
func decodeMapView(row Row, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Struct:
		idx := indexFields(dst.Type())
		for i := 0; i < row.Len(); i++ {
			v, err := row.Value(i)
			if err != nil {
				return &AccessError{Index: i, Err: err}
			}
			path, ok := idx.byName[foldName(row.Name(i))]
			if !ok {
				continue
			}
			if err := decodeValue(v, fieldByPath(dst, path)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		t := dst.Type()
		if t.Key().Kind() != reflect.String {
			return &TypeMismatchError{
				Target: t.String(),
				Reason: "map decode needs a string-keyed map target",
			}
		}
		m := reflect.MakeMapWithSize(t, row.Len())
		for i := 0; i < row.Len(); i++ {
			v, err := row.Value(i)
			if err != nil {
				return &AccessError{Index: i, Err: err}
			}
			ev := reflect.New(t.Elem()).Elem()
			if err := decodeValue(v, ev); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(row.Name(i)).Convert(t.Key()), ev)
		}
		dst.Set(m)
		return nil
	}

	return &TypeMismatchError{
		Target: dst.Type().String(),
		Reason: "map decode needs a record or map target",
	}
}

// decodeSeqView decodes columns positionally, discarding names. Fixed-length
// targets must consume exactly the row's columns.
func decodeSeqView(row Row, dst reflect.Value) error {
	n := row.Len()
	switch dst.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(dst.Type(), n, n)
		for i := 0; i < n; i++ {
			v, err := row.Value(i)
			if err != nil {
				return &AccessError{Index: i, Err: err}
			}
			if err := decodeValue(v, out.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if dst.Len() != n {
			return &TypeMismatchError{
				Target: dst.Type().String(),
				Reason: fmt.Sprintf("row has %d columns, target holds %d", n, dst.Len()),
			}
		}
		for i := 0; i < n; i++ {
			v, err := row.Value(i)
			if err != nil {
				return &AccessError{Index: i, Err: err}
			}
			if err := decodeValue(v, dst.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Interface:
		out := make([]any, n)
		for i := 0; i < n; i++ {
			v, err := row.Value(i)
			if err != nil {
				return &AccessError{Index: i, Err: err}
			}
			slot := reflect.ValueOf(&out[i]).Elem()
			if err := decodeValue(v, slot); err != nil {
				return err
			}
		}
		dst.Set(reflect.ValueOf(out))
		return nil
	}

	return &TypeMismatchError{
		Target: dst.Type().String(),
		Reason: "sequence decode needs a slice or array target",
	}
}
