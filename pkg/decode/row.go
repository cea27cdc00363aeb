// Package decode converts positional, dynamically-typed database rows into
// arbitrary statically-shaped Go values. The engine knows nothing about
// transports or query execution: it consumes rows through the narrow Row and
// Value interfaces and negotiates the target shape from the Go type it is
// asked to fill.
package decode

import "strings"

// Row is the view of one query result item the decoder reads. A Row is
// owned by the caller and immutable for the duration of a decode; column
// order is significant and duplicate column names are legal.
type Row interface {
	// Len returns the number of columns.
	Len() int

	// Name returns the declared name of column i.
	Name(i int) string

	// Value returns the raw, type-tagged payload of column i. An error here
	// means the row source failed, not that the value is malformed.
	Value(i int) (Value, error)
}

// Format identifies how a Value's payload is encoded. The codes match the
// Postgres wire format codes, which is what row sources see on the wire.
type Format int16

const (
	// TextFormat marks payloads in the source's text representation, or
	// payloads the driver already turned into native Go values.
	TextFormat Format = 0

	// BinaryFormat marks payloads in the source's binary wire form. For
	// JSONB this implies the leading envelope version byte.
	BinaryFormat Format = 1
)

// Value is one column's undecoded payload together with its runtime type tag.
// Values are borrowed from the Row; the engine copies only when the target
// shape requires ownership.
type Value interface {
	// Tag returns the source's runtime type name, e.g. "INT4", "TEXT[]",
	// "JSONB". Matching is case-insensitive.
	Tag() string

	// Format reports the payload encoding.
	Format() Format

	// IsNull reports a database NULL. The engine never calls Raw on nulls.
	IsNull() bool

	// Raw returns the payload: a native Go value if the driver already
	// decoded it, or string/[]byte in the source's wire representation.
	Raw() any
}

// normalizeTag canonicalizes a source type tag: upper-cased, with catalog
// array names ("_int4") rewritten to the suffixed form ("INT4[]").
func normalizeTag(tag string) string {
	tag = strings.ToUpper(tag)
	if strings.HasPrefix(tag, "_") {
		return strings.TrimPrefix(tag, "_") + "[]"
	}
	return tag
}

func isArrayTag(tag string) bool { return strings.HasSuffix(tag, "[]") }

// elementTag strips one array dimension from a normalized tag.
func elementTag(tag string) string { return strings.TrimSuffix(tag, "[]") }

func isDocumentTag(tag string) bool { return tag == "JSON" || tag == "JSONB" }
