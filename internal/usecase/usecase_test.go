package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/llamicron/lab-grader/internal/usecase/checks"
)

// --- fakes ---

type fakeRubricLoader struct {
	build func() *domain.Rubric
	err   error
}

func (f fakeRubricLoader) LoadRubric(_ string) (*domain.Rubric, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.build(), nil
}

func (f fakeRubricLoader) ListRubrics(_ string) ([]domain.RubricRef, error) {
	return nil, nil
}

type fakeReceipts struct {
	saved []*domain.Submission
	err   error
}

func (f *fakeReceipts) SaveReceipt(sub *domain.Submission) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, sub)
	return "receipt-1", nil
}

type fakeSubmitter struct {
	url  string
	sent *domain.Submission
	err  error
}

func (f *fakeSubmitter) Submit(_ context.Context, url string, sub *domain.Submission) error {
	f.url = url
	f.sent = sub
	return f.err
}

type fakeSink struct {
	got []*domain.Submission
	err error
}

func (f *fakeSink) Append(_ context.Context, sub *domain.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sub)
	return nil
}

// indexedSink remembers ids like a database sink.
type indexedSink struct {
	fakeSink
	ids map[string]bool
}

func (f *indexedSink) Append(ctx context.Context, sub *domain.Submission) error {
	if err := f.fakeSink.Append(ctx, sub); err != nil {
		return err
	}
	if f.ids == nil {
		f.ids = map[string]bool{}
	}
	f.ids[sub.ID] = true
	return nil
}

func (f *indexedSink) Has(_ context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

func labRubric() *domain.Rubric {
	return &domain.Rubric{
		Name: "Lab 1",
		Criteria: domain.NewCriteria(
			domain.NewCriterion("student id given").Worth(5).Func("data_present").Arg("key", "id").Build(),
			domain.NewCriterion("is alice").Worth(10).Func("data_equals").Arg("key", "name").Arg("value", "alice").Build(),
		),
	}
}

func fixedClock() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }

// --- GradeLab ---

func TestGradeLab_GradesAndSubmits(t *testing.T) {
	receipts := &fakeReceipts{}
	sub := &fakeSubmitter{}
	uc := NewGradeLab(fakeRubricLoader{build: labRubric}, checks.NewRegistry(),
		WithReceipts(receipts), WithSubmitter(sub), WithClock(fixedClock))

	report, err := uc.Execute(context.Background(), "rubrics/lab1.yaml",
		domain.NewTestData("id", "42", "name", "bob"), "http://grader/submit")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	s := report.Submission
	if s.Grade != 5 || len(s.Passed) != 1 || len(s.Failed) != 1 {
		t.Fatalf("unexpected grading %+v", s)
	}
	if s.Rubric != "Lab 1" || !s.Time.Equal(fixedClock()) {
		t.Fatalf("expected rubric and time set, got %+v", s)
	}
	if report.ReceiptID != "receipt-1" || len(receipts.saved) != 1 {
		t.Fatalf("expected receipt saved")
	}
	if !report.Submitted || sub.url != "http://grader/submit" || sub.sent != s {
		t.Fatalf("expected submission posted")
	}
	if report.Rubric.TotalPoints() != 15 {
		t.Fatalf("expected total 15")
	}
}

func TestGradeLab_NoSubmitURLSkipsSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	uc := NewGradeLab(fakeRubricLoader{build: labRubric}, checks.NewRegistry(), WithSubmitter(sub))

	report, err := uc.Execute(context.Background(), "x.yaml", domain.TestData{}, " ")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Submitted || sub.sent != nil {
		t.Fatalf("expected no submit")
	}
}

func TestGradeLab_SubmitErrorKeepsReport(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	uc := NewGradeLab(fakeRubricLoader{build: labRubric}, checks.NewRegistry(), WithSubmitter(sub))

	report, err := uc.Execute(context.Background(), "x.yaml", domain.NewTestData("id", "1"), "http://grader")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected submit error, got %v", err)
	}
	if report.Submission == nil || report.Submission.Grade != 5 || report.Submitted {
		t.Fatalf("expected graded report without submitted flag, got %+v", report)
	}
}

func TestGradeLab_UnboundCriterion(t *testing.T) {
	build := func() *domain.Rubric {
		r := labRubric()
		r.Criteria.Add(domain.NewCriterion("mystery").Func("no_such_check").Build())
		return r
	}
	uc := NewGradeLab(fakeRubricLoader{build: build}, checks.NewRegistry())

	_, err := uc.Execute(context.Background(), "lab.yaml", domain.TestData{}, "")
	if !domain.IsKind(err, domain.KindInvalidConfig) || !errors.Is(err, domain.ErrNoTest) {
		t.Fatalf("expected invalid config / no test, got %v", err)
	}
	if !strings.Contains(err.Error(), "no_such_check") || !strings.Contains(err.Error(), "lab.yaml") {
		t.Fatalf("expected stub and path in error, got %v", err)
	}
}

func TestGradeLab_InvalidRubricCarriesPath(t *testing.T) {
	build := func() *domain.Rubric { return &domain.Rubric{Criteria: domain.NewCriteria()} }
	uc := NewGradeLab(fakeRubricLoader{build: build}, checks.NewRegistry())

	_, err := uc.Execute(context.Background(), "broken.yaml", domain.TestData{}, "")
	if !domain.IsKind(err, domain.KindInvalidConfig) || !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("expected invalid config with path, got %v", err)
	}
}

func TestGradeLab_ClosedRubric(t *testing.T) {
	build := func() *domain.Rubric {
		r := labRubric()
		d := fixedClock().Add(-time.Hour)
		r.Deadline = &d
		return r
	}
	receipts := &fakeReceipts{}
	uc := NewGradeLab(fakeRubricLoader{build: build}, checks.NewRegistry(),
		WithReceipts(receipts), WithClock(fixedClock))

	_, err := uc.Execute(context.Background(), "lab.yaml", domain.TestData{}, "")
	if !domain.IsKind(err, domain.KindClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
	if len(receipts.saved) != 0 {
		t.Fatalf("expected no receipt for closed rubric")
	}
}

func TestGradeLab_LoaderError(t *testing.T) {
	loadErr := &domain.OpError{Op: "load", Kind: domain.KindNotFound, Err: domain.ErrNotFound}
	uc := NewGradeLab(fakeRubricLoader{err: loadErr}, checks.NewRegistry())

	_, err := uc.Execute(context.Background(), "missing.yaml", nil, "")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGradeLab_StopsOnContextCancel(t *testing.T) {
	called := false
	build := func() *domain.Rubric { called = true; return labRubric() }
	uc := NewGradeLab(fakeRubricLoader{build: build}, checks.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, "lab.yaml", nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("expected rubric not loaded")
	}
}

// --- ValidateRubric ---

func TestGradeLab_SameCheckTwice(t *testing.T) {
	build := func() *domain.Rubric {
		r := labRubric()
		r.Criteria.Add(domain.NewCriterion("name given").Worth(3).Func("data_present").Arg("key", "name").Build())
		return r
	}
	uc := NewGradeLab(fakeRubricLoader{build: build}, checks.NewRegistry(), WithClock(fixedClock))

	rep, err := uc.Execute(context.Background(), "lab.yaml", domain.NewTestData("id", "42", "name", "bob"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Submission.Grade != 8 || len(rep.Submission.Passed) != 2 || len(rep.Submission.Failed) != 1 {
		t.Fatalf("unexpected submission: %+v", rep.Submission)
	}
}

func TestValidateRubric(t *testing.T) {
	uc := NewValidateRubric(fakeRubricLoader{build: labRubric}, checks.NewRegistry())
	r, err := uc.Execute(context.Background(), "lab.yaml")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	r.Criteria.Each(func(c *domain.Criterion) {
		if c.Tested() {
			t.Errorf("expected %q not run during validation", c.Name)
		}
	})
}

// --- AcceptSubmission ---

func TestAcceptSubmission_AppendsToAllSinks(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	uc := NewAcceptSubmission([]ports.SubmissionSink{a, b})

	sub := domain.NewSubmission()
	sub.ID = ""
	if err := uc.Execute(context.Background(), sub); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("expected both sinks written")
	}
	if sub.ID == "" {
		t.Fatalf("expected id assigned")
	}
}

func TestAcceptSubmission_RejectsMissingTime(t *testing.T) {
	sink := &fakeSink{}
	uc := NewAcceptSubmission([]ports.SubmissionSink{sink})

	err := uc.Execute(context.Background(), &domain.Submission{Grade: 3})
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if len(sink.got) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestAcceptSubmission_SinkFailure(t *testing.T) {
	first := &fakeSink{err: errors.New("disk full")}
	second := &fakeSink{}
	uc := NewAcceptSubmission([]ports.SubmissionSink{first, second})

	err := uc.Execute(context.Background(), domain.NewSubmission())
	if !domain.IsKind(err, domain.KindExecution) || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected execution error, got %v", err)
	}
	if len(second.got) != 0 {
		t.Fatalf("expected later sinks skipped")
	}
}

func TestAcceptSubmission_RubricPolicy(t *testing.T) {
	r := labRubric()
	deadline := fixedClock()
	r.Deadline = &deadline

	sink := &fakeSink{}
	before := NewAcceptSubmission([]ports.SubmissionSink{sink}, WithRubric(r),
		WithAcceptClock(func() time.Time { return deadline.Add(-time.Minute) }))

	sub := domain.NewSubmission()
	sub.Rubric = "Lab 2"
	if err := before.Execute(context.Background(), sub); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected rubric mismatch, got %v", err)
	}

	sub.Rubric = "Lab 1"
	if err := before.Execute(context.Background(), sub); err != nil {
		t.Fatalf("expected accepted before deadline, got %v", err)
	}

	after := NewAcceptSubmission([]ports.SubmissionSink{sink}, WithRubric(r),
		WithAcceptClock(func() time.Time { return deadline.Add(time.Minute) }))
	if err := after.Execute(context.Background(), sub); !errors.Is(err, domain.ErrSubmissionClosed) {
		t.Fatalf("expected closed after deadline, got %v", err)
	}
	if len(sink.got) != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", len(sink.got))
	}
}

func TestAcceptSubmission_ReplayWritesNothing(t *testing.T) {
	csv, db := &fakeSink{}, &indexedSink{}
	uc := NewAcceptSubmission([]ports.SubmissionSink{csv, db})

	sub := domain.NewSubmission()
	sub.Time = fixedClock()
	if err := uc.Execute(context.Background(), sub); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	replay := *sub
	err := uc.Execute(context.Background(), &replay)
	if !domain.IsKind(err, domain.KindDuplicate) || !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if len(csv.got) != 1 || len(db.got) != 1 {
		t.Fatalf("expected replay to write no sink, got csv=%d db=%d", len(csv.got), len(db.got))
	}
}
