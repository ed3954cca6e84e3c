package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

const defaultReceiptsDir = "receipts"
const maskValue = "********"

// Store writes one JSON receipt per graded submission.
type Store struct {
	rootDir        string
	receiptsDir    string
	maskingEnabled bool
	writeIndex     bool
	now            func() time.Time
}

type Option func(*Store)

// WithIndex enables a JSONL index: receipts/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *Store) { s.writeIndex = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(root string, cfg domain.Config, opts ...Option) *Store {
	dir := cfg.Paths.ReceiptsDir
	if strings.TrimSpace(dir) == "" {
		dir = defaultReceiptsDir
	}

	s := &Store{
		rootDir:        root,
		receiptsDir:    dir,
		maskingEnabled: cfg.Grade.Masking,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReceiptStore = (*Store)(nil)

func (s *Store) Dir() string {
	if filepath.IsAbs(s.receiptsDir) {
		return s.receiptsDir
	}
	return filepath.Join(s.rootDir, s.receiptsDir)
}

func (s *Store) SaveReceipt(sub *domain.Submission) (string, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "jsonstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	ts := sub.Time
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	slug := domain.Slug(sub.Rubric)
	if slug == "" {
		slug = "submission"
	}

	base := fmt.Sprintf("%s_%s", ts.Format("20060102T150405Z"), slug)
	id, path := uniquePath(dir, base)

	toSave := *sub
	toSave.Data = sub.Data.Clone()
	if s.maskingEnabled {
		maskData(toSave.Data)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "jsonstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{
			Op:   "jsonstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "jsonstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = s.appendIndex(dir, id, filepath.Base(path), sub)
	}

	return id, nil
}

// LoadReceipt reads a receipt back by id.
func (s *Store) LoadReceipt(id string) (*domain.Submission, error) {
	path := filepath.Join(s.Dir(), id+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return nil, &domain.OpError{Op: "jsonstore.load", Kind: kind, Path: path, Err: err}
	}

	var sub domain.Submission
	if err := json.Unmarshal(b, &sub); err != nil {
		return nil, &domain.OpError{
			Op:   "jsonstore.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return &sub, nil
}

// uniquePath returns base.json, or base_2.json, base_3.json... when taken.
func uniquePath(dir, base string) (string, string) {
	id := base
	for n := 2; ; n++ {
		p := filepath.Join(dir, id+".json")
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return id, p
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func (s *Store) appendIndex(dir, id, filename string, sub *domain.Submission) error {
	type idx struct {
		ID         string    `json:"id"`
		File       string    `json:"file"`
		Submission string    `json:"submission"`
		Rubric     string    `json:"rubric"`
		Grade      int       `json:"grade"`
		Time       time.Time `json:"time"`
	}
	line, err := json.Marshal(idx{
		ID:         id,
		File:       filename,
		Submission: sub.ID,
		Rubric:     sub.Rubric,
		Grade:      sub.Grade,
		Time:       sub.Time,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _ = f.Write(append(line, '\n'))
	return nil
}

func maskData(d domain.TestData) {
	for k := range d {
		if isSensitiveKey(k) {
			d[k] = maskValue
		}
	}
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "api_key") ||
		strings.Contains(kk, "apikey")
}
