// Package commands implements the rowshape subcommands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rowshape/internal/cli/config"
	"github.com/leapstack-labs/rowshape/internal/cli/output"
	"github.com/leapstack-labs/rowshape/pkg/adapter"
	"github.com/leapstack-labs/rowshape/pkg/decode"
	"github.com/leapstack-labs/rowshape/pkg/source"
)

// NewQueryCommand returns the `rowshape query` command: connect to the
// configured database, run one SQL statement, decode every result row
// through the engine, and render the decoded values.
func NewQueryCommand(getCfg func() *config.Config, getLogger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a SQL query and decode the result rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			logger := getLogger()
			ctx := cmd.Context()

			a, err := adapter.New(cfg.AdapterSettings(), logger)
			if err != nil {
				return err
			}
			if err := a.Connect(ctx, cfg.AdapterSettings()); err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rows, err := a.Query(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = rows.Close() }()

			var (
				columns []string
				decoded []map[string]any
			)
			for rows.Next() {
				row, err := source.ScanSQLRow(rows.Rows)
				if err != nil {
					return err
				}
				if columns == nil {
					columns = row.Names()
				}
				m, err := decode.Decode[map[string]any](row)
				if err != nil {
					return fmt.Errorf("decoding row %d: %w", len(decoded)+1, err)
				}
				decoded = append(decoded, m)
			}
			if err := rows.Err(); err != nil {
				return fmt.Errorf("iterating rows: %w", err)
			}

			logger.Debug("query decoded", slog.Int("rows", len(decoded)))
			return output.NewRenderer(cmd.OutOrStdout(), output.Mode(cfg.Output)).Render(columns, decoded)
		},
	}
}
