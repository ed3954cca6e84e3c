package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

// AcceptSubmission is the server side of a submission: it checks a posted
// submission and appends it to every sink in order.
type AcceptSubmission struct {
	sinks  []ports.SubmissionSink
	rubric *domain.Rubric
	now    func() time.Time
	log    *slog.Logger
}

type AcceptOption func(*AcceptSubmission)

// WithRubric enforces the rubric's deadlines at receive time and requires
// submissions to name it.
func WithRubric(r *domain.Rubric) AcceptOption {
	return func(uc *AcceptSubmission) { uc.rubric = r }
}

func WithAcceptClock(now func() time.Time) AcceptOption {
	return func(uc *AcceptSubmission) { uc.now = now }
}

func WithAcceptLogger(l *slog.Logger) AcceptOption {
	return func(uc *AcceptSubmission) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewAcceptSubmission(sinks []ports.SubmissionSink, opts ...AcceptOption) *AcceptSubmission {
	uc := &AcceptSubmission{
		sinks: sinks,
		now:   time.Now,
		log:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *AcceptSubmission) Execute(ctx context.Context, sub *domain.Submission) error {
	if sub == nil || sub.Time.IsZero() {
		return &domain.OpError{
			Op:   "submission.accept",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: submission time is required", domain.ErrInvalidConfig),
		}
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Data == nil {
		sub.Data = domain.TestData{}
	}

	if uc.rubric != nil {
		if sub.Rubric != uc.rubric.Name {
			return &domain.OpError{
				Op:   "submission.accept",
				Kind: domain.KindInvalidConfig,
				Err:  fmt.Errorf("%w: submission is for rubric %q, server accepts %q", domain.ErrInvalidConfig, sub.Rubric, uc.rubric.Name),
			}
		}
		if uc.rubric.LateStatus(uc.now()) == domain.Closed {
			return &domain.OpError{
				Op:   "submission.accept",
				Kind: domain.KindClosed,
				Err:  fmt.Errorf("rubric %q: %w", uc.rubric.Name, domain.ErrSubmissionClosed),
			}
		}
	}

	if err := uc.checkDuplicate(ctx, sub.ID); err != nil {
		return err
	}

	// Sinks are written in order and not rolled back; a failure after the
	// first sink leaves the earlier rows in place.
	for _, s := range uc.sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Append(ctx, sub); err != nil {
			uc.log.Error("submission.sink_failed", "id", sub.ID, "err", err)
			return &domain.OpError{
				Op:   "submission.accept",
				Kind: domain.KindExecution,
				Err:  errors.Join(domain.ErrExecution, err),
			}
		}
	}

	uc.log.Info("submission.accepted", "id", sub.ID, "rubric", sub.Rubric, "grade", sub.Grade)
	return nil
}

// checkDuplicate asks every sink that indexes ids, before anything is written.
func (uc *AcceptSubmission) checkDuplicate(ctx context.Context, id string) error {
	for _, s := range uc.sinks {
		idx, ok := s.(ports.SubmissionIndex)
		if !ok {
			continue
		}
		seen, err := idx.Has(ctx, id)
		if err != nil {
			uc.log.Error("submission.lookup_failed", "id", id, "err", err)
			return &domain.OpError{
				Op:   "submission.accept",
				Kind: domain.KindExecution,
				Err:  errors.Join(domain.ErrExecution, err),
			}
		}
		if seen {
			uc.log.Warn("submission.duplicate", "id", id)
			return &domain.OpError{
				Op:   "submission.accept",
				Kind: domain.KindDuplicate,
				Err:  fmt.Errorf("%w: id %s", domain.ErrDuplicate, id),
			}
		}
	}
	return nil
}
