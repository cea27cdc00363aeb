package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/leapstack-labs/rowshape/pkg/decode"
)

// ScanPgxRow materializes the current pgx row into a Buffered row. Type tags
// are resolved from the field descriptions' OIDs through the type map, and
// payloads are the raw wire bytes, so the engine sees text or binary format
// exactly as the server sent it (including the JSONB envelope byte on
// binary-format results). A nil type map uses a fresh default map.
func ScanPgxRow(rows pgx.Rows, m *pgtype.Map) (*Buffered, error) {
	if m == nil {
		m = pgtype.NewMap()
	}

	fds := rows.FieldDescriptions()
	raws := rows.RawValues()
	if len(fds) != len(raws) {
		return nil, fmt.Errorf("field descriptions and raw values disagree: %d vs %d", len(fds), len(raws))
	}

	b := NewBuffered()
	for i, fd := range fds {
		tag := tagForOID(m, fd.DataTypeOID)
		if raws[i] == nil {
			b.NullCol(fd.Name, tag)
			continue
		}
		// RawValues buffers are only valid until the next call to Next.
		owned := make([]byte, len(raws[i]))
		copy(owned, raws[i])
		if fd.Format == pgtype.BinaryFormatCode {
			b.BinaryCol(fd.Name, tag, owned)
		} else {
			b.Col(fd.Name, tag, owned)
		}
	}
	return b, nil
}

// DecodeAllPgx drains rows, decoding every remaining row into T. One corrupt
// row aborts the drain; rows decoded so far are discarded with it. A nil type
// map uses a fresh default map for every row's tag resolution.
func DecodeAllPgx[T any](rows pgx.Rows, m *pgtype.Map) ([]T, error) {
	if m == nil {
		m = pgtype.NewMap()
	}
	var out []T
	for rows.Next() {
		row, err := ScanPgxRow(rows, m)
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

// tagForOID maps a type OID to the engine's tag form. Catalog array names
// ("_int4") are left intact; the engine normalizes them. Unknown OIDs keep a
// numeric tag so the unsupported-type error path reports what the source
// actually sent.
func tagForOID(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return strings.ToUpper(t.Name)
	}
	return "OID:" + strconv.FormatUint(uint64(oid), 10)
}
