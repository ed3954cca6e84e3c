package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/infra/logger"
	"github.com/llamicron/lab-grader/internal/infra/resultsfile"
	"github.com/llamicron/lab-grader/internal/infra/server"
	"github.com/llamicron/lab-grader/internal/infra/sqlstore"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/llamicron/lab-grader/internal/usecase"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var rubric string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the submission server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, opts, map[string]string{
				"server.addr":         "addr",
				"server.results_file": "results",
				"server.db_path":      "db",
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logger.Component("serve")

			st, err := openStorage(ctx, ws)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			acceptOpts := []usecase.AcceptOption{usecase.WithAcceptLogger(logger.Component("accept"))}
			if rubric != "" {
				r, err := loadServeRubric(ws, rubric)
				if err != nil {
					return err
				}
				acceptOpts = append(acceptOpts, usecase.WithRubric(r))
			}

			srv := server.New(
				usecase.NewAcceptSubmission(st.sinks, acceptOpts...),
				server.WithSource(st.source),
				server.WithMaxBodyBytes(ws.cfg.Server.MaxBodyBytes),
				server.WithLogger(logger.Component("server")),
			)

			log.Info("serve.start", "addr", ws.cfg.Server.Addr, "results", st.results.Path(), "sinks", len(st.sinks))
			return srv.Serve(ctx, ws.cfg.Server.Addr, func(a net.Addr) {
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (results: %s)\n", a, st.results.Path())
			})
		},
	}

	c.Flags().String("addr", "", "Listen address (overrides server.addr)")
	c.Flags().String("results", "", "CSV results file (overrides server.results_file)")
	c.Flags().String("db", "", "SQLite database (overrides server.db_path)")
	c.Flags().StringVarP(&rubric, "rubric", "r", "", "Rubric whose deadlines gate submissions (optional)")
	return c
}

// loadServeRubric loads the rubric for its late policy only; criteria are not bound.
func loadServeRubric(ws *workspaceCtx, arg string) (*domain.Rubric, error) {
	path, err := resolveRubricPath(ws, arg)
	if err != nil {
		return nil, err
	}
	return ws.rubrics.LoadRubric(path)
}

// serveStorage is where the server writes and lists submissions.
type serveStorage struct {
	results *resultsfile.File
	store   *sqlstore.Store
	sinks   []ports.SubmissionSink
	source  ports.SubmissionSource
}

// openStorage always writes the results file. A configured database is an
// extra sink and backs listing, since it keeps id, rubric and penalty.
func openStorage(ctx context.Context, ws *workspaceCtx) (*serveStorage, error) {
	results := resultsfile.New(inWorkspace(ws.root, ws.cfg.Server.ResultsFile))
	st := &serveStorage{
		results: results,
		sinks:   []ports.SubmissionSink{results},
		source:  results,
	}

	if dbPath := inWorkspace(ws.root, ws.cfg.Server.DBPath); dbPath != "" {
		store, err := sqlstore.Open(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		st.store = store
		st.sinks = append(st.sinks, store)
		st.source = store
	}
	return st, nil
}

func (st *serveStorage) Close() error {
	if st.store == nil {
		return nil
	}
	return st.store.Close()
}
