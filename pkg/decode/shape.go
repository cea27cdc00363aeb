package decode

import (
	"reflect"
	"sync"
)

// fieldIndex is the flattened field map of a record target. It is computed
// once per type, before any key matching happens, so flatten merges resolve
// against the complete field-name set rather than by trial and error.
type fieldIndex struct {
	byName map[string][]int // folded name -> field index path
	names  []string         // declared names in declaration order, flattened
}

var fieldIndexCache sync.Map // reflect.Type -> *fieldIndex

// indexFields builds (or fetches) the field index for a struct type.
// Fields tagged `db:"-"` are omitted. Embedded structs without a tag and
// fields tagged with the flatten option merge their fields into the parent
// namespace; on name collisions the outermost declaration wins.
func indexFields(t reflect.Type) *fieldIndex {
	if v, ok := fieldIndexCache.Load(t); ok {
		return v.(*fieldIndex)
	}

	idx := &fieldIndex{byName: make(map[string][]int)}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		t = derefType(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue // unexported
			}
			tag := sf.Tag.Get("db")
			name, flatten, omit := parseFieldTag(tag)
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)
			if flatten || (sf.Anonymous && tag == "") {
				if derefType(sf.Type).Kind() == reflect.Struct {
					walk(sf.Type, path)
					continue
				}
			}
			if name == "" {
				name = sf.Name
			}
			key := foldName(name)
			if _, dup := idx.byName[key]; !dup {
				idx.byName[key] = path
				idx.names = append(idx.names, name)
			}
		}
	}
	walk(t, nil)

	fieldIndexCache.Store(t, idx)
	return idx
}

// parseFieldTag understands `db:"name"`, `db:"name,flatten"`, `db:",flatten"`
// and `db:"-"`.
func parseFieldTag(tag string) (name string, flatten, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			switch part := tag[start:i]; part {
			case "flatten":
				flatten = true
			case "":
			default:
				if name == "" {
					name = part
				}
			}
			start = i + 1
		}
	}
	return name, flatten, false
}

// foldName lower-cases ASCII letters so column and field names match
// case-insensitively without allocating in the common all-lowercase case.
func foldName(s string) string {
	upper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			upper = true
			break
		}
	}
	if !upper {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// fieldByPath walks a field index path from root, allocating intermediate
// nil pointers so the final field is addressable.
func fieldByPath(root reflect.Value, path []int) reflect.Value {
	v := root
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}
