package decode

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// jsonbVersion is the envelope version byte leading binary-format JSONB
// payloads. Only version 1 exists.
const jsonbVersion = 1

// parseDocument turns a JSON or JSONB column payload into its generic tree
// form: map[string]any, []any, string, float64, bool or nil. The tree is
// owned by the ongoing decode and discarded when it unwinds.
func parseDocument(tag string, v Value) (any, error) {
	raw := v.Raw()
	switch x := raw.(type) {
	case map[string]any, []any, bool, float64:
		// Driver already parsed the document.
		return x, nil
	case json.RawMessage:
		return unmarshalDocument(tag, x)
	case string:
		return unmarshalDocument(tag, []byte(x))
	case []byte:
		b := x
		if tag == "JSONB" && v.Format() == BinaryFormat {
			if len(b) == 0 || b[0] != jsonbVersion {
				return nil, &FormatError{Tag: tag, Err: fmt.Errorf("missing or unsupported envelope version byte")}
			}
			b = b[1:]
		}
		return unmarshalDocument(tag, b)
	default:
		return nil, &FormatError{Tag: tag, Err: fmt.Errorf("unexpected document payload %T", raw)}
	}
}

func unmarshalDocument(tag string, b []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &FormatError{Tag: tag, Err: err}
	}
	return doc, nil
}

// reconcileDocument matches a fixed-field record target against a parsed
// document. For an object with a single-field target the object is decoded
// directly when the field is already a key, and otherwise wrapped as that
// field's value; multi-field targets require every field name present.
// Non-object documents bypass reconciliation and decode directly.
func reconcileDocument(doc any, dst reflect.Value) error {
	obj, ok := doc.(map[string]any)
	if !ok {
		return decodeDocumentValue(doc, dst)
	}

	idx := indexFields(dst.Type())
	if len(idx.names) == 1 {
		if _, present := lookupKey(obj, idx.names[0]); present {
			return decodeDocumentValue(doc, dst)
		}
		return decodeDocumentValue(map[string]any{idx.names[0]: doc}, dst)
	}

	var missing []string
	for _, name := range idx.names {
		if _, present := lookupKey(obj, name); !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		found := make([]string, 0, len(obj))
		for k := range obj {
			found = append(found, k)
		}
		sort.Strings(found)
		return &TypeMismatchError{
			Target: dst.Type().String(),
			Tag:    "JSON",
			Reason: fmt.Sprintf("document object missing expected keys %v, found %v", missing, found),
		}
	}
	return decodeDocumentValue(doc, dst)
}

// decodeDocumentValue pushes a parsed document node into dst through the same
// dispatch contract as any column value: objects become records or maps,
// arrays become sequences, scalars become primitives.
func decodeDocumentValue(doc any, dst reflect.Value) error {
	if dst.Kind() == reflect.Pointer {
		if doc == nil {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeDocumentValue(doc, dst.Elem())
	}
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		if doc == nil {
			dst.SetZero()
			return nil
		}
		dst.Set(reflect.ValueOf(doc))
		return nil
	}

	switch x := doc.(type) {
	case nil:
		return &TypeMismatchError{Target: dst.Type().String(), Reason: "document null in non-optional position"}
	case bool:
		if dst.Kind() != reflect.Bool {
			return documentMismatch(dst, x)
		}
		dst.SetBool(x)
		return nil
	case float64:
		return assignDocumentNumber(x, dst)
	case string:
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(x)
			return nil
		case reflect.Slice:
			if dst.Type().Elem().Kind() == reflect.Uint8 {
				dst.SetBytes([]byte(x))
				return nil
			}
		}
		return documentMismatch(dst, x)
	case []any:
		switch dst.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(dst.Type(), len(x), len(x))
			for i, el := range x {
				if err := decodeDocumentValue(el, out.Index(i)); err != nil {
					return err
				}
			}
			dst.Set(out)
			return nil
		case reflect.Array:
			if dst.Len() != len(x) {
				return &TypeMismatchError{
					Target: dst.Type().String(),
					Reason: fmt.Sprintf("document array has %d elements, target holds %d", len(x), dst.Len()),
				}
			}
			for i, el := range x {
				if err := decodeDocumentValue(el, dst.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}
		return documentMismatch(dst, x)
	case map[string]any:
		switch dst.Kind() {
		case reflect.Struct:
			return decodeDocumentObject(x, dst)
		case reflect.Map:
			t := dst.Type()
			if t.Key().Kind() != reflect.String {
				return documentMismatch(dst, x)
			}
			m := reflect.MakeMapWithSize(t, len(x))
			for k, el := range x {
				ev := reflect.New(t.Elem()).Elem()
				if err := decodeDocumentValue(el, ev); err != nil {
					return err
				}
				m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
			}
			dst.Set(m)
			return nil
		}
		return documentMismatch(dst, x)
	default:
		return &FormatError{Tag: "JSON", Err: fmt.Errorf("unexpected document node %T", doc)}
	}
}

// decodeDocumentObject fills a record target from a document object using the
// flattened field index. Absent keys are legal only for optional fields.
func decodeDocumentObject(obj map[string]any, dst reflect.Value) error {
	idx := indexFields(dst.Type())
	for _, name := range idx.names {
		path := idx.byName[foldName(name)]
		fv := fieldByPath(dst, path)
		val, present := lookupKey(obj, name)
		if !present {
			if fv.Kind() == reflect.Pointer {
				continue
			}
			return &TypeMismatchError{
				Target: dst.Type().String(),
				Reason: fmt.Sprintf("document object missing field %q", name),
			}
		}
		if err := decodeDocumentValue(val, fv); err != nil {
			return err
		}
	}
	return nil
}

// lookupKey finds a field name in a document object, exact match first, then
// case-folded.
func lookupKey(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	folded := foldName(name)
	for k, v := range obj {
		if foldName(k) == folded {
			return v, true
		}
	}
	return nil, false
}

func assignDocumentNumber(f float64, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(f)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || dst.OverflowInt(int64(f)) {
			return documentMismatch(dst, f)
		}
		dst.SetInt(int64(f))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f < 0 || f != math.Trunc(f) || dst.OverflowUint(uint64(f)) {
			return documentMismatch(dst, f)
		}
		dst.SetUint(uint64(f))
		return nil
	}
	return documentMismatch(dst, f)
}

func documentMismatch(dst reflect.Value, node any) error {
	return &TypeMismatchError{
		Target: dst.Type().String(),
		Tag:    "JSON",
		Reason: fmt.Sprintf("document %T node does not fit the target kind", node),
	}
}
