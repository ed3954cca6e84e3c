package ports

import (
	"context"

	"github.com/llamicron/lab-grader/internal/domain"
)

// Submitter delivers a graded submission to a submission server.
type Submitter interface {
	Submit(ctx context.Context, url string, sub *domain.Submission) error
}
