package decode

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// rfc3339Offset is RFC 3339 with a forced numeric offset, so UTC timestamps
// render as +00:00 rather than Z and every timestamp carries an explicit zone.
const rfc3339Offset = "2006-01-02T15:04:05.999999999-07:00"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999999"
)

// timestampLayouts are the text forms drivers hand back for timestamp
// columns, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// decodeScalar converts one non-null raw payload into the engine primitive
// for its (normalized) type tag: bool, int16/32/64, float32/64, string or
// []byte. It accepts both driver-native payloads and text-format payloads,
// since row sources differ in how much the driver already decoded.
func decodeScalar(tag string, raw any) (any, error) {
	switch tag {
	case "BOOL", "BOOLEAN":
		return scalarBool(tag, raw)
	case "INT2", "SMALLINT":
		i, err := scalarInt(tag, raw, "int16")
		if err != nil {
			return nil, err
		}
		if i < -1<<15 || i > 1<<15-1 {
			return nil, &DriverDecodeError{Target: "int16", Tag: tag, Err: fmt.Errorf("value %d overflows", i)}
		}
		return int16(i), nil
	case "INT4", "INT", "INTEGER":
		i, err := scalarInt(tag, raw, "int32")
		if err != nil {
			return nil, err
		}
		if i < -1<<31 || i > 1<<31-1 {
			return nil, &DriverDecodeError{Target: "int32", Tag: tag, Err: fmt.Errorf("value %d overflows", i)}
		}
		return int32(i), nil
	case "INT8", "BIGINT":
		return scalarInt(tag, raw, "int64")
	case "FLOAT4", "REAL":
		f, err := scalarFloat(tag, raw, "float32")
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		// NUMERIC deliberately truncates to double precision.
		return scalarFloat(tag, raw, "float64")
	case "CHAR", "BPCHAR", "VARCHAR", "TEXT", "NAME":
		s, ok := rawText(raw)
		if !ok {
			return nil, payloadError(tag, "string", raw)
		}
		return s, nil
	case "BYTEA", "BLOB":
		return scalarBytes(tag, raw)
	case "DATE":
		return scalarTime(tag, raw, dateLayout)
	case "TIME":
		return scalarTime(tag, raw, timeLayout)
	case "TIMETZ":
		return scalarTime(tag, raw, timeLayout+"-07:00")
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return scalarTimestamp(tag, raw)
	case "INTERVAL":
		return scalarInterval(tag, raw)
	case "UUID":
		return scalarUUID(tag, raw)
	default:
		// Unrecognized (or empty) tag: sqlite and duckdb report no type for
		// expression columns, so pass native primitives through as-is before
		// falling back to a string decode. If the payload cannot be read as
		// text either, the decode fails outright.
		switch x := raw.(type) {
		case bool, int16, int32, int64, float32, float64:
			return x, nil
		case int:
			return int64(x), nil
		case int8:
			return int16(x), nil
		case time.Time:
			return x.Format(rfc3339Offset), nil
		}
		if s, ok := rawText(raw); ok {
			return s, nil
		}
		return nil, &UnsupportedTypeError{Tag: tag}
	}
}

func scalarBool(tag string, raw any) (any, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case string, []byte:
		s, _ := rawText(raw)
		switch s {
		case "t", "true", "T", "TRUE":
			return true, nil
		case "f", "false", "F", "FALSE":
			return false, nil
		}
		return nil, &DriverDecodeError{Target: "bool", Tag: tag, Err: fmt.Errorf("unrecognized boolean text %q", s)}
	default:
		return nil, payloadError(tag, "bool", raw)
	}
}

func scalarInt(tag string, raw any, target string) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint64:
		if x > 1<<63-1 {
			return 0, &DriverDecodeError{Target: target, Tag: tag, Err: fmt.Errorf("value %d overflows", x)}
		}
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case string, []byte:
		s, _ := rawText(raw)
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, &DriverDecodeError{Target: target, Tag: tag, Err: err}
		}
		return i, nil
	default:
		return 0, payloadError(tag, target, raw)
	}
}

func scalarFloat(tag string, raw any, target string) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil {
			return 0, &DriverDecodeError{Target: target, Tag: tag, Err: err}
		}
		return f.Float64, nil
	case string, []byte:
		s, _ := rawText(raw)
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &DriverDecodeError{Target: target, Tag: tag, Err: err}
		}
		return f, nil
	default:
		return 0, payloadError(tag, target, raw)
	}
}

func scalarBytes(tag string, raw any) (any, error) {
	switch x := raw.(type) {
	case []byte:
		if len(x) >= 2 && x[0] == '\\' && x[1] == 'x' {
			return decodeHexBytes(tag, string(x[2:]))
		}
		return x, nil
	case string:
		if strings.HasPrefix(x, `\x`) {
			return decodeHexBytes(tag, x[2:])
		}
		return []byte(x), nil
	default:
		return nil, payloadError(tag, "[]byte", raw)
	}
}

func decodeHexBytes(tag, s string) (any, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DriverDecodeError{Target: "[]byte", Tag: tag, Err: err}
	}
	return b, nil
}

// scalarTime renders date and time-of-day columns as canonical strings.
// Text payloads are assumed canonical already and pass through.
func scalarTime(tag string, raw any, layout string) (any, error) {
	switch x := raw.(type) {
	case time.Time:
		return x.Format(layout), nil
	case string, []byte:
		s, _ := rawText(raw)
		return s, nil
	default:
		return nil, payloadError(tag, "string", raw)
	}
}

func scalarTimestamp(tag string, raw any) (any, error) {
	switch x := raw.(type) {
	case time.Time:
		return x.Format(rfc3339Offset), nil
	case string, []byte:
		s, _ := rawText(raw)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(rfc3339Offset), nil
			}
		}
		return nil, &DriverDecodeError{Target: "timestamp", Tag: tag, Err: fmt.Errorf("unrecognized timestamp text %q", s)}
	default:
		return nil, payloadError(tag, "timestamp", raw)
	}
}

// scalarInterval folds the day and microsecond components of an interval into
// one duration string. The month component has no fixed microsecond length
// and is deliberately dropped; this is a documented lossy conversion, and
// callers that need calendar-aware intervals should select the column as text.
// Text payloads are parsed from the Postgres interval form before folding.
func scalarInterval(tag string, raw any) (any, error) {
	switch x := raw.(type) {
	case pgtype.Interval:
		return intervalString(x), nil
	case time.Duration:
		return x.String(), nil
	case string, []byte:
		s, _ := rawText(raw)
		var iv pgtype.Interval
		if err := iv.Scan(s); err != nil {
			return nil, &DriverDecodeError{Target: "interval", Tag: tag, Err: err}
		}
		return intervalString(iv), nil
	default:
		return nil, payloadError(tag, "interval", raw)
	}
}

func intervalString(iv pgtype.Interval) string {
	d := time.Duration(iv.Days)*24*time.Hour + time.Duration(iv.Microseconds)*time.Microsecond
	return d.String()
}

// scalarUUID canonicalizes to the hyphenated lowercase form.
func scalarUUID(tag string, raw any) (any, error) {
	switch x := raw.(type) {
	case uuid.UUID:
		return x.String(), nil
	case [16]byte:
		return uuid.UUID(x).String(), nil
	case []byte:
		if len(x) == 16 {
			u, err := uuid.FromBytes(x)
			if err != nil {
				return nil, &DriverDecodeError{Target: "uuid", Tag: tag, Err: err}
			}
			return u.String(), nil
		}
		u, err := uuid.ParseBytes(x)
		if err != nil {
			return nil, &DriverDecodeError{Target: "uuid", Tag: tag, Err: err}
		}
		return u.String(), nil
	case string:
		u, err := uuid.Parse(x)
		if err != nil {
			return nil, &DriverDecodeError{Target: "uuid", Tag: tag, Err: err}
		}
		return u.String(), nil
	default:
		return nil, payloadError(tag, "uuid", raw)
	}
}

func rawText(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

func payloadError(tag, target string, raw any) error {
	return &DriverDecodeError{Target: target, Tag: tag, Err: fmt.Errorf("unexpected driver payload %T", raw)}
}

// assignScalar stores an engine primitive into dst, widening numerics where
// the target allows it. Mismatches carry the target type name and source tag.
func assignScalar(dst reflect.Value, prim any, tag string) error {
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		dst.Set(reflect.ValueOf(prim))
		return nil
	}

	switch p := prim.(type) {
	case bool:
		if dst.Kind() == reflect.Bool {
			dst.SetBool(p)
			return nil
		}
	case int16, int32, int64:
		i := reflect.ValueOf(prim).Int()
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if dst.OverflowInt(i) {
				return &DriverDecodeError{Target: dst.Type().String(), Tag: tag, Err: fmt.Errorf("value %d overflows", i)}
			}
			dst.SetInt(i)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if i < 0 || dst.OverflowUint(uint64(i)) {
				return &DriverDecodeError{Target: dst.Type().String(), Tag: tag, Err: fmt.Errorf("value %d overflows", i)}
			}
			dst.SetUint(uint64(i))
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(i))
			return nil
		}
	case float32, float64:
		f := reflect.ValueOf(prim).Float()
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(f)
			return nil
		}
	case string:
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(p)
			return nil
		case reflect.Slice:
			if dst.Type().Elem().Kind() == reflect.Uint8 {
				dst.SetBytes([]byte(p))
				return nil
			}
		}
	case []byte:
		switch dst.Kind() {
		case reflect.Slice:
			if dst.Type().Elem().Kind() == reflect.Uint8 {
				dst.SetBytes(p)
				return nil
			}
		case reflect.String:
			dst.SetString(string(p))
			return nil
		}
	}

	return &TypeMismatchError{
		Target: dst.Type().String(),
		Tag:    tag,
		Reason: fmt.Sprintf("%T value does not fit the target kind", prim),
	}
}
