package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/infra/logger"
	"github.com/llamicron/lab-grader/internal/infra/resultsfile"
	"github.com/llamicron/lab-grader/internal/infra/sqlstore"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/llamicron/lab-grader/internal/ui/report"
	"github.com/llamicron/lab-grader/internal/ui/tui"
)

func resultsCmd(opts *rootOptions) *cobra.Command {
	var format string
	var limit int
	var noColor bool
	var browse bool

	c := &cobra.Command{
		Use:   "results",
		Short: "Show submissions received by the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "table", "json"); err != nil {
				return err
			}

			ws, err := loadWorkspace(cmd, opts, map[string]string{
				"server.results_file": "results",
				"server.db_path":      "db",
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// The database, when configured, is the richer source.
			var src ports.SubmissionSource
			title := inWorkspace(ws.root, ws.cfg.Server.ResultsFile)
			if dbPath := inWorkspace(ws.root, ws.cfg.Server.DBPath); dbPath != "" {
				store, err := sqlstore.Open(ctx, dbPath)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				src, title = store, dbPath
			} else {
				src = resultsfile.New(title)
			}

			if browse {
				return tui.Run(tui.Deps{
					Source: src,
					Title:  title,
					Limit:  limit,
					Logger: logger.Component("tui"),
				})
			}

			subs, err := src.List(ctx, limit)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), subs, format, ws.cfg.Grade.Color && !noColor)
		},
	}

	c.Flags().String("results", "", "CSV results file (overrides server.results_file)")
	c.Flags().String("db", "", "SQLite database (overrides server.db_path)")
	c.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	c.Flags().IntVar(&limit, "limit", 0, "Show only the last N submissions (0 = all)")
	c.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	c.Flags().BoolVar(&browse, "tui", false, "Browse submissions interactively")
	return c
}

func printResults(w io.Writer, subs []domain.Submission, format string, color bool) error {
	switch format {
	case "json":
		if subs == nil {
			subs = []domain.Submission{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(subs)
	case "table", "":
		fmt.Fprint(w, report.New(color).Table(subs))
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected table|json)", format)
	}
}
