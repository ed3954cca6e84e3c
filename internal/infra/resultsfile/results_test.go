package resultsfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/llamicron/lab-grader/internal/domain"
)

func newSub(grade int, kv ...string) *domain.Submission {
	s := domain.SubmissionFromData(domain.NewTestData(kv...))
	s.Time = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.Grade = grade
	s.Pass("Git installed: passed")
	return s
}

func TestAppend_WritesHeaderOnce(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "submissions.csv")
	f := New(p)
	ctx := context.Background()

	if err := f.Append(ctx, newSub(10, "name", "alice", "id", "1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(ctx, newSub(5, "name", "bob", "id", "2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d:\n%s", len(lines), b)
	}
	if lines[0] != "time,grade,passed,failed,id,name" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "2026-09-01T12:00:00Z,10,Git installed: passed,,1,alice" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestAppend_AlignsToExistingHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "submissions.csv")
	f := New(p)
	ctx := context.Background()

	if err := f.Append(ctx, newSub(1, "id", "1", "name", "alice")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// extra key dropped, missing key left empty
	if err := f.Append(ctx, newSub(2, "name", "bob", "extra", "x")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	subs, err := f.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2, got %d", len(subs))
	}
	second := subs[1]
	if second.Data["name"] != "bob" || second.Data["id"] != "" {
		t.Fatalf("unexpected data %v", second.Data)
	}
	if _, ok := second.Data["extra"]; ok {
		t.Fatalf("expected unknown key dropped")
	}
	if second.Grade != 2 || len(second.Passed) != 1 || len(second.Failed) != 0 {
		t.Fatalf("unexpected submission %+v", second)
	}
}

func TestList_LimitAndMissingFile(t *testing.T) {
	ctx := context.Background()
	f := New(filepath.Join(t.TempDir(), "submissions.csv"))

	subs, err := f.List(ctx, 10)
	if err != nil || len(subs) != 0 {
		t.Fatalf("expected empty list for missing file, got %v %v", subs, err)
	}

	for i := 1; i <= 3; i++ {
		if err := f.Append(ctx, newSub(i, "id", "x")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	subs, err = f.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 2 || subs[0].Grade != 2 || subs[1].Grade != 3 {
		t.Fatalf("expected the two most recent, got %+v", subs)
	}
}

func TestList_CorruptRow(t *testing.T) {
	p := filepath.Join(t.TempDir(), "submissions.csv")
	content := "time,grade,passed,failed\n2026-09-01T12:00:00Z,ten,,\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := New(p).List(context.Background(), 0)
	if !domain.IsKind(err, domain.KindInvalidConfig) || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected invalid config on line 2, got %v", err)
	}
}

func TestAppend_Concurrent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "submissions.csv")
	f := New(p)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := f.Append(ctx, newSub(i, "id", "x")); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	subs, err := f.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(subs))
	}
}

func TestList_RoundTripsLinesWithSeparators(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "submissions.csv"))
	ctx := context.Background()

	sub := newSub(7, "name", "alice")
	sub.Passed = []string{"Build: compiled; tests ran", `Path: C:\labs\one`}
	sub.Failed = []string{"Lint: 3 issues;"}
	if err := f.Append(ctx, sub); err != nil {
		t.Fatalf("Append: %v", err)
	}

	subs, err := f.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	got := subs[0]
	if len(got.Passed) != 2 || got.Passed[0] != sub.Passed[0] || got.Passed[1] != sub.Passed[1] {
		t.Fatalf("passed lines changed: %q", got.Passed)
	}
	if len(got.Failed) != 1 || got.Failed[0] != sub.Failed[0] {
		t.Fatalf("failed lines changed: %q", got.Failed)
	}
	if got.Grade != 7 || got.Data["name"] != "alice" || !got.Time.Equal(sub.Time) {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestAppend_WaitsForOtherLockHolder(t *testing.T) {
	p := filepath.Join(t.TempDir(), "submissions.csv")
	f := New(p)

	other := flock.New(p + ".lock")
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = f.Append(ctx, newSub(1, "name", "alice"))
	if !domain.IsKind(err, domain.KindExecution) || !errors.Is(err, context.DeadlineExceeded) {
		_ = other.Unlock()
		t.Fatalf("expected lock timeout, got %v", err)
	}
	if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
		_ = other.Unlock()
		t.Fatalf("expected nothing written while locked, stat err=%v", statErr)
	}

	if err := other.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := f.Append(context.Background(), newSub(1, "name", "alice")); err != nil {
		t.Fatalf("Append after unlock: %v", err)
	}
}
