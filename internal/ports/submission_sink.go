package ports

import (
	"context"

	"github.com/llamicron/lab-grader/internal/domain"
)

// SubmissionSink persists accepted submissions.
type SubmissionSink interface {
	Append(ctx context.Context, sub *domain.Submission) error
}

// SubmissionSource lists stored submissions, newest last.
type SubmissionSource interface {
	List(ctx context.Context, limit int) ([]domain.Submission, error)
}

// SubmissionIndex is implemented by sinks that can tell whether an id was
// already stored.
type SubmissionIndex interface {
	Has(ctx context.Context, id string) (bool, error)
}
