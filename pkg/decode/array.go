package decode

import (
	"fmt"
	"reflect"
	"strings"
)

// arrayElem is one element of an array column after the one-shot split. It
// re-enters the generic value protocol carrying the element's type tag, so
// nested arrays, documents and records as elements all work.
type arrayElem struct {
	tag    string
	format Format
	null   bool
	raw    any
}

func (e arrayElem) Tag() string    { return e.tag }
func (e arrayElem) Format() Format { return e.format }
func (e arrayElem) IsNull() bool   { return e.null }
func (e arrayElem) Raw() any       { return e.raw }

// decodeArray decodes an array column into dst. The payload is decoded in one
// shot into an owned element list (nil marking a database NULL inside the
// array, distinct from a null array itself); elements are then yielded one by
// one into the caller's element shape. A single undecodable element fails the
// whole array, since ordering and completeness are assumed downstream.
func decodeArray(tag string, v Value, dst reflect.Value) error {
	elems, err := splitArray(tag, v)
	if err != nil {
		return err
	}

	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		out := make([]any, len(elems))
		for i, el := range elems {
			if el.null {
				continue
			}
			slot := reflect.ValueOf(&out[i]).Elem()
			if err := decodeValue(el, slot); err != nil {
				return err
			}
		}
		dst.Set(reflect.ValueOf(out))
		return nil
	}

	if dst.Kind() != reflect.Slice {
		return &TypeMismatchError{
			Target: dst.Type().String(),
			Tag:    tag,
			Reason: "array column needs a sequence target",
		}
	}

	et := dst.Type().Elem()
	out := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
	for i, el := range elems {
		if el.null && et.Kind() != reflect.Pointer && et.Kind() != reflect.Interface {
			return &TypeMismatchError{
				Target: et.String(),
				Tag:    tag,
				Reason: "unexpected null in non-optional array element",
			}
		}
		if err := decodeValue(el, out.Index(i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

// splitArray decodes the array payload into its owned element list. Text
// payloads are parsed from the array literal form; slice payloads from
// drivers that pre-split arrays are taken element-wise, with nil pointers or
// interfaces marking in-array nulls.
func splitArray(tag string, v Value) ([]arrayElem, error) {
	etag := elementTag(tag)
	raw := v.Raw()

	switch x := raw.(type) {
	case string:
		return splitArrayLiteral(etag, x)
	case []byte:
		if v.Format() == BinaryFormat {
			return splitArrayBinary(etag, x)
		}
		return splitArrayLiteral(etag, string(x))
	}

	rv := reflect.ValueOf(raw)
	if rv.IsValid() && rv.Kind() == reflect.Slice {
		elems := make([]arrayElem, rv.Len())
		for i := range elems {
			el := rv.Index(i)
			null := false
			for el.Kind() == reflect.Pointer || el.Kind() == reflect.Interface {
				if el.IsNil() {
					null = true
					break
				}
				el = el.Elem()
			}
			if null {
				elems[i] = arrayElem{tag: etag, format: v.Format(), null: true}
			} else {
				elems[i] = arrayElem{tag: etag, format: v.Format(), raw: el.Interface()}
			}
		}
		return elems, nil
	}

	return nil, &DriverDecodeError{Target: "array", Tag: tag, Err: fmt.Errorf("unexpected array payload %T", raw)}
}

// splitArrayLiteral parses the text array literal form
// {a,NULL,"quoted \"text\"",{nested}} into raw element texts. Unquoted NULL
// marks an in-array null; a nested brace group stays intact as one element
// and keeps an array-suffixed tag so recursion re-dispatches it.
func splitArrayLiteral(etag, s string) ([]arrayElem, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, &DriverDecodeError{Target: "array", Tag: etag + "[]", Err: fmt.Errorf("malformed array literal %q", s)}
	}
	body := s[1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var (
		elems    []arrayElem
		cur      strings.Builder
		depth    int
		inQuote  bool
		wasQuote bool
	)
	flush := func() {
		text := cur.String()
		cur.Reset()
		elem := arrayElem{tag: etag, format: TextFormat}
		switch {
		case !wasQuote && strings.EqualFold(strings.TrimSpace(text), "NULL"):
			elem.null = true
		case !wasQuote && strings.HasPrefix(strings.TrimSpace(text), "{"):
			elem.tag = etag + "[]"
			elem.raw = strings.TrimSpace(text)
		default:
			elem.raw = text
		}
		elems = append(elems, elem)
		wasQuote = false
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inQuote:
			if c == '\\' && i+1 < len(body) {
				i++
				cur.WriteByte(body[i])
				continue
			}
			if c == '"' {
				inQuote = false
				continue
			}
			cur.WriteByte(c)
		case c == '"':
			inQuote = true
			wasQuote = true
		case c == '{':
			depth++
			cur.WriteByte(c)
		case c == '}':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote || depth != 0 {
		return nil, &DriverDecodeError{Target: "array", Tag: etag + "[]", Err: fmt.Errorf("unterminated array literal %q", s)}
	}
	flush()
	return elems, nil
}
