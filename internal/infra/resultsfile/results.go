package resultsfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

const lockRetry = 50 * time.Millisecond

// File appends submissions to a CSV file. The first submission written fixes
// the header; later rows are laid out against it.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

var (
	_ ports.SubmissionSink   = (*File)(nil)
	_ ports.SubmissionSource = (*File)(nil)
)

func New(path string) *File {
	return &File{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (f *File) Path() string { return f.path }

func (f *File) Append(ctx context.Context, sub *domain.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return f.opErr("resultsfile.append", err)
	}
	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = f.lock.Unlock() }()

	header, err := readHeader(f.path)
	if err != nil {
		return f.opErr("resultsfile.append", err)
	}

	out, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return f.opErr("resultsfile.append", err)
	}

	w := csv.NewWriter(out)
	if header == nil {
		header = sub.CSVHeader()
		_ = w.Write(header)
	}
	_ = w.Write(sub.CSVRecordFor(header))
	w.Flush()

	if err := w.Error(); err != nil {
		_ = out.Close()
		return f.opErr("resultsfile.append", err)
	}
	if err := out.Close(); err != nil {
		return f.opErr("resultsfile.append", err)
	}
	return nil
}

// List returns stored submissions, oldest first. A positive limit keeps the
// most recent ones. A missing file is an empty list.
func (f *File) List(ctx context.Context, limit int) ([]domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Submission{}, nil
		}
		return nil, f.opErr("resultsfile.list", err)
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []domain.Submission{}, nil
	}
	if err != nil {
		return nil, f.invalid(err)
	}

	var out []domain.Submission
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, f.invalid(err)
		}
		sub, err := parseRecord(header, rec)
		if err != nil {
			return nil, f.invalid(fmt.Errorf("line %d: %w", line, err))
		}
		out = append(out, sub)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []domain.Submission{}
	}
	return out, nil
}

func (f *File) acquire(ctx context.Context) error {
	locked, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return f.opErr("resultsfile.lock", err)
	}
	if !locked {
		return f.opErr("resultsfile.lock", fmt.Errorf("results file is locked by another process"))
	}
	return nil
}

func readHeader(path string) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	return header, err
}

func parseRecord(header, rec []string) (domain.Submission, error) {
	if len(rec) < 4 {
		return domain.Submission{}, fmt.Errorf("expected at least 4 columns, got %d", len(rec))
	}

	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return domain.Submission{}, fmt.Errorf("time: %w", err)
	}
	grade, err := strconv.Atoi(rec[1])
	if err != nil {
		return domain.Submission{}, fmt.Errorf("grade: %w", err)
	}

	sub := domain.Submission{
		Time:   ts,
		Grade:  grade,
		Passed: domain.SplitLines(rec[2]),
		Failed: domain.SplitLines(rec[3]),
		Data:   domain.TestData{},
	}
	for i := 4; i < len(header) && i < len(rec); i++ {
		sub.Data[header[i]] = rec[i]
	}
	return sub, nil
}

func (f *File) opErr(op string, err error) error {
	return &domain.OpError{
		Op:   op,
		Kind: domain.KindExecution,
		Path: f.path,
		Err:  err,
	}
}

func (f *File) invalid(err error) error {
	return &domain.OpError{
		Op:   "resultsfile.list",
		Kind: domain.KindInvalidConfig,
		Path: f.path,
		Err:  err,
	}
}
