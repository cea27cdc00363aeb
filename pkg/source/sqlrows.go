package source

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/rowshape/pkg/decode"
)

// ScanSQLRow materializes the current database/sql row (after rows.Next has
// returned true) into a Buffered row. Type tags come from the driver's
// DatabaseTypeName; payloads stay whatever the driver produced, which the
// engine's scalar codec accepts in either native or text form.
func ScanSQLRow(rows *sql.Rows) (*Buffered, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading column types: %w", err)
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}

	b := NewBuffered()
	for i, name := range cols {
		tag := types[i].DatabaseTypeName()
		if raw[i] == nil {
			b.NullCol(name, tag)
			continue
		}
		if bs, ok := raw[i].([]byte); ok {
			// database/sql reuses scan buffers between rows; take a copy so
			// the Buffered row owns its payloads.
			owned := make([]byte, len(bs))
			copy(owned, bs)
			b.Col(name, tag, owned)
			continue
		}
		b.Col(name, tag, raw[i])
	}
	return b, nil
}

// DecodeAll drains rows, decoding every remaining row into T. One corrupt
// row aborts the drain; rows decoded so far are discarded with it.
func DecodeAll[T any](rows *sql.Rows) ([]T, error) {
	var out []T
	for rows.Next() {
		row, err := ScanSQLRow(rows)
		if err != nil {
			return nil, err
		}
		v, err := decode.Decode[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
