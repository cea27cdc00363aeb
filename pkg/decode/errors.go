package decode

import "fmt"

// AccessError reports that the row source failed to produce a column value.
// The source's error is surfaced verbatim and never retried.
type AccessError struct {
	Index int
	Err   error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("column %d: row source access failed: %v", e.Index, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// FormatError reports a malformed document payload: a bad or missing JSONB
// envelope version byte, or a document body that does not parse.
type FormatError struct {
	Tag string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed document: %v", e.Tag, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TypeMismatchError reports a source value that cannot inhabit the requested
// target shape: a null in a non-optional position, a record missing required
// document keys, or a column kind the target type cannot hold.
type TypeMismatchError struct {
	Target string
	Tag    string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("cannot decode into %s: %s", e.Target, e.Reason)
	}
	return fmt.Sprintf("cannot decode %s into %s: %s", e.Tag, e.Target, e.Reason)
}

// UnsupportedTypeError reports a type tag outside the dispatch table whose
// fallback string decode also failed. The raw tag is carried so callers can
// extend their sources without guessing.
type UnsupportedTypeError struct {
	Tag string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported column type %q", e.Tag)
}

// DriverDecodeError reports that the per-type conversion rejected the bytes.
type DriverDecodeError struct {
	Target string
	Tag    string
	Err    error
}

func (e *DriverDecodeError) Error() string {
	return fmt.Sprintf("decoding %s as %s: %v", e.Tag, e.Target, e.Err)
}

func (e *DriverDecodeError) Unwrap() error { return e.Err }
