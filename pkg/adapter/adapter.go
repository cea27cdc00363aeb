// Package adapter provides database adapter interfaces and implementations
// used by rowshape to reach a database and pull result rows for decoding.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g. "duckdb", "postgres", "sqlite").
	Type string

	// Path is the file path for file-based databases. Use ":memory:" for an
	// in-memory database.
	Path string

	// Host is the hostname for network-based databases.
	Host string

	// Port is the port number for network-based databases.
	Port int

	// Database is the database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the narrow surface the CLI needs: connect, run SQL, fetch rows.
// Decoding the rows is the engine's job, not the adapter's.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// DriverName returns the adapter's registered name.
	DriverName() string
}
