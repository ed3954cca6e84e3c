//go:build integration

package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/infra/resultsfile"
	"github.com/llamicron/lab-grader/internal/infra/server"
	"github.com/llamicron/lab-grader/internal/infra/sqlstore"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/llamicron/lab-grader/internal/usecase"
)

func TestGradeSubmitAndListResults(t *testing.T) {
	root := initWorkspace(t)
	ctx := context.Background()

	results := resultsfile.New(filepath.Join(root, "submissions.csv"))
	store, err := sqlstore.Open(ctx, filepath.Join(root, "submissions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	accept := usecase.NewAcceptSubmission([]ports.SubmissionSink{results, store})
	srv := httptest.NewServer(server.New(accept, server.WithSource(results)).Handler())
	defer srv.Close()

	for _, name := range []string{"Ada", "Grace"} {
		out, err := execute(t, "grade", "-w", root, "-r", "example",
			"--data", "name="+name, "--submit", srv.URL+"/submit", "--no-color")
		if err != nil {
			t.Fatalf("grade %s: %v\n%s", name, err, out)
		}
	}

	out, err := execute(t, "results", "-w", root, "--format", "json")
	if err != nil {
		t.Fatalf("results: %v\n%s", err, out)
	}
	var fromCSV []domain.Submission
	if err := json.Unmarshal([]byte(out), &fromCSV); err != nil {
		t.Fatalf("results output is not JSON: %v\n%s", err, out)
	}
	if len(fromCSV) != 2 || fromCSV[0].Data["name"] != "Ada" || fromCSV[1].Data["name"] != "Grace" {
		t.Fatalf("unexpected CSV submissions: %+v", fromCSV)
	}

	fromDB, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list store: %v", err)
	}
	if len(fromDB) != 2 {
		t.Fatalf("expected 2 stored submissions, got %d", len(fromDB))
	}
	for i := range fromDB {
		if fromDB[i].Rubric != "Example Lab" || fromDB[i].Grade != fromCSV[i].Grade {
			t.Fatalf("db and csv disagree at %d: %+v vs %+v", i, fromDB[i], fromCSV[i])
		}
	}

	out, err = execute(t, "results", "-w", root, "--db", "submissions.db", "--limit", "1", "--format", "json")
	if err != nil {
		t.Fatalf("results --db: %v\n%s", err, out)
	}
	var last []domain.Submission
	if err := json.Unmarshal([]byte(out), &last); err != nil {
		t.Fatalf("results output is not JSON: %v\n%s", err, out)
	}
	if len(last) != 1 || last[0].Data["name"] != "Grace" {
		t.Fatalf("expected only the latest submission, got %+v", last)
	}
}
