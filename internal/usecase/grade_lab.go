package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

// GradeReport is the outcome of grading one lab locally.
type GradeReport struct {
	RubricPath string
	Rubric     *domain.Rubric
	Submission *domain.Submission
	ReceiptID  string
	Submitted  bool
}

type GradeLab struct {
	rubrics   ports.RubricLoader
	binder    ports.CheckBinder
	receipts  ports.ReceiptStore
	submitter ports.Submitter
	now       func() time.Time
	log       *slog.Logger
}

type GradeOption func(*GradeLab)

// WithReceipts saves a local receipt for every graded submission.
func WithReceipts(s ports.ReceiptStore) GradeOption {
	return func(uc *GradeLab) { uc.receipts = s }
}

// WithSubmitter enables delivery to a submission server.
func WithSubmitter(s ports.Submitter) GradeOption {
	return func(uc *GradeLab) { uc.submitter = s }
}

// WithClock overrides the submission timestamp source (useful for tests).
func WithClock(now func() time.Time) GradeOption {
	return func(uc *GradeLab) { uc.now = now }
}

func WithLogger(l *slog.Logger) GradeOption {
	return func(uc *GradeLab) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewGradeLab(rl ports.RubricLoader, binder ports.CheckBinder, opts ...GradeOption) *GradeLab {
	uc := &GradeLab{
		rubrics: rl,
		binder:  binder,
		now:     time.Now,
		log:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute grades data against the rubric at rubricPath. When submitURL is
// non-empty and a submitter is configured, the submission is posted after
// grading. The report is returned even when saving or submitting fails.
func (uc *GradeLab) Execute(ctx context.Context, rubricPath string, data domain.TestData, submitURL string) (GradeReport, error) {
	report := GradeReport{RubricPath: rubricPath}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	rubric, err := loadBound(uc.rubrics, uc.binder, rubricPath)
	if err != nil {
		return report, err
	}
	report.Rubric = rubric

	sub := domain.SubmissionFromData(data)
	sub.Time = uc.now()
	report.Submission = sub

	if err := sub.GradeAgainstRubric(rubric); err != nil {
		return report, err
	}
	uc.log.Info("grade.completed",
		"rubric", rubric.Name,
		"grade", sub.Grade,
		"total", rubric.TotalPoints(),
		"passed", len(sub.Passed),
		"failed", len(sub.Failed),
		"penalty", sub.Penalty,
	)

	if uc.receipts != nil {
		id, err := uc.receipts.SaveReceipt(sub)
		if err != nil {
			return report, err
		}
		report.ReceiptID = id
	}

	if strings.TrimSpace(submitURL) != "" && uc.submitter != nil {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := uc.submitter.Submit(ctx, submitURL, sub); err != nil {
			uc.log.Error("grade.submit_failed", "url", submitURL, "err", err)
			return report, fmt.Errorf("submit to %s: %w", submitURL, err)
		}
		report.Submitted = true
		uc.log.Info("grade.submitted", "url", submitURL, "id", sub.ID)
	}

	return report, nil
}

func loadBound(rl ports.RubricLoader, binder ports.CheckBinder, path string) (*domain.Rubric, error) {
	rubric, err := rl.LoadRubric(path)
	if err != nil {
		return nil, err
	}
	if err := rubric.Validate(); err != nil {
		return nil, withPath(err, path)
	}

	if binder != nil {
		if missing := binder.Bind(rubric.Criteria); len(missing) > 0 {
			return nil, &domain.OpError{
				Op:   "grade.bind",
				Kind: domain.KindInvalidConfig,
				Path: path,
				Err:  fmt.Errorf("%w: no check registered for %s", domain.ErrNoTest, strings.Join(rubric.Criteria.UnattachedLabels(), ", ")),
			}
		}
	}
	return rubric, nil
}

func withPath(err error, path string) error {
	if oe, ok := err.(*domain.OpError); ok && oe.Path == "" {
		cp := *oe
		cp.Path = path
		return &cp
	}
	return err
}
