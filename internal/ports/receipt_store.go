package ports

import "github.com/llamicron/lab-grader/internal/domain"

// ReceiptStore keeps a local copy of every graded submission.
type ReceiptStore interface {
	SaveReceipt(sub *domain.Submission) (id string, err error)
}
