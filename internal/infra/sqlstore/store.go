// Package sqlstore keeps accepted submissions in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// submissionModel maps the `submissions` table.
type submissionModel struct {
	bun.BaseModel `bun:"table:submissions"`
	Seq           int64     `bun:"seq,pk,autoincrement"`
	ID            string    `bun:"id,notnull,unique"`
	Time          time.Time `bun:"time,notnull"`
	Rubric        string    `bun:"rubric"`
	Grade         int       `bun:"grade,notnull"`
	Penalty       int       `bun:"penalty,notnull"`
	Data          string    `bun:"data,notnull"`
	Passed        string    `bun:"passed,notnull"`
	Failed        string    `bun:"failed,notnull"`
}

type Store struct {
	path string
	bun  *bun.DB
}

var (
	_ ports.SubmissionSink   = (*Store)(nil)
	_ ports.SubmissionSource = (*Store)(nil)
	_ ports.SubmissionIndex  = (*Store)(nil)
)

// Open connects to the database at path and creates the schema when missing.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, opErr("sqlstore.open", path, err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, opErr("sqlstore.open", path, err)
	}
	// In-memory databases are per connection.
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	s := &Store{path: path, bun: bun.NewDB(sqlDB, sqlitedialect.New())}
	if _, err := s.bun.NewCreateTable().Model((*submissionModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = s.bun.Close()
		return nil, opErr("sqlstore.migrate", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.bun.Close()
}

// Append is Save, so the store can be used as a submission sink.
func (s *Store) Append(ctx context.Context, sub *domain.Submission) error {
	return s.Save(ctx, sub)
}

func (s *Store) Save(ctx context.Context, sub *domain.Submission) error {
	m, err := toModel(sub)
	if err != nil {
		return opErr("sqlstore.save", s.path, err)
	}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return opErr("sqlstore.save", s.path, err)
	}
	return nil
}

// Has reports whether a submission with id is stored.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	ok, err := s.bun.NewSelect().Model((*submissionModel)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return false, opErr("sqlstore.has", s.path, err)
	}
	return ok, nil
}

// List returns submissions oldest first. A positive limit keeps the most
// recent ones.
func (s *Store) List(ctx context.Context, limit int) ([]domain.Submission, error) {
	var rows []submissionModel
	q := s.bun.NewSelect().Model(&rows).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, opErr("sqlstore.list", s.path, err)
	}

	out := make([]domain.Submission, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		sub, err := fromModel(rows[i])
		if err != nil {
			return nil, &domain.OpError{
				Op:   "sqlstore.list",
				Kind: domain.KindInvalidConfig,
				Path: s.path,
				Err:  fmt.Errorf("submission %s: %w", rows[i].ID, err),
			}
		}
		out = append(out, sub)
	}
	return out, nil
}

func toModel(sub *domain.Submission) (*submissionModel, error) {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return nil, err
	}
	passed, err := json.Marshal(nonNil(sub.Passed))
	if err != nil {
		return nil, err
	}
	failed, err := json.Marshal(nonNil(sub.Failed))
	if err != nil {
		return nil, err
	}
	return &submissionModel{
		ID:      sub.ID,
		Time:    sub.Time.UTC(),
		Rubric:  sub.Rubric,
		Grade:   sub.Grade,
		Penalty: sub.Penalty,
		Data:    string(data),
		Passed:  string(passed),
		Failed:  string(failed),
	}, nil
}

func fromModel(m submissionModel) (domain.Submission, error) {
	sub := domain.Submission{
		ID:      m.ID,
		Time:    m.Time,
		Rubric:  m.Rubric,
		Grade:   m.Grade,
		Penalty: m.Penalty,
		Data:    domain.TestData{},
	}
	if err := json.Unmarshal([]byte(m.Data), &sub.Data); err != nil {
		return sub, fmt.Errorf("data: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Passed), &sub.Passed); err != nil {
		return sub, fmt.Errorf("passed: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Failed), &sub.Failed); err != nil {
		return sub, fmt.Errorf("failed: %w", err)
	}
	if sub.Data == nil {
		sub.Data = domain.TestData{}
	}
	return sub, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func opErr(op, path string, err error) error {
	return &domain.OpError{
		Op:   op,
		Kind: domain.KindExecution,
		Path: path,
		Err:  err,
	}
}
