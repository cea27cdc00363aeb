// Package source adapts concrete driver result sets to the decode engine's
// Row contract. Every adapter materializes one result row at a time into a
// Buffered row, so the engine's precondition — all column data resident
// before the decode begins — always holds.
package source

import (
	"fmt"

	"github.com/leapstack-labs/rowshape/pkg/decode"
)

// Buffered is an owned, in-memory row: the reference implementation of
// decode.Row. The adapters build one per result row; tests build them
// directly.
type Buffered struct {
	names  []string
	values []bufferedValue
}

type bufferedValue struct {
	tag    string
	format decode.Format
	null   bool
	raw    any
}

// NewBuffered returns an empty row. Columns are appended in declaration
// order with Col, BinaryCol and NullCol.
func NewBuffered() *Buffered { return &Buffered{} }

// Col appends a column with a non-null payload in text format (or already
// decoded by the driver).
func (b *Buffered) Col(name, tag string, raw any) *Buffered {
	return b.add(name, bufferedValue{tag: tag, format: decode.TextFormat, raw: raw})
}

// BinaryCol appends a column whose payload is in the binary wire format.
func (b *Buffered) BinaryCol(name, tag string, raw []byte) *Buffered {
	return b.add(name, bufferedValue{tag: tag, format: decode.BinaryFormat, raw: raw})
}

// NullCol appends a NULL column.
func (b *Buffered) NullCol(name, tag string) *Buffered {
	return b.add(name, bufferedValue{tag: tag, null: true})
}

func (b *Buffered) add(name string, v bufferedValue) *Buffered {
	b.names = append(b.names, name)
	b.values = append(b.values, v)
	return b
}

// Names returns the column names in declaration order.
func (b *Buffered) Names() []string { return b.names }

func (b *Buffered) Len() int { return len(b.values) }

func (b *Buffered) Name(i int) string { return b.names[i] }

func (b *Buffered) Value(i int) (decode.Value, error) {
	if i < 0 || i >= len(b.values) {
		return nil, fmt.Errorf("column %d out of range (%d columns)", i, len(b.values))
	}
	return b.values[i], nil
}

func (v bufferedValue) Tag() string           { return v.tag }
func (v bufferedValue) Format() decode.Format { return v.format }
func (v bufferedValue) IsNull() bool          { return v.null }
func (v bufferedValue) Raw() any              { return v.raw }
