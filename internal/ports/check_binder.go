package ports

import "github.com/llamicron/lab-grader/internal/domain"

// CheckBinder attaches test functions to criteria and reports the stubs it
// could not bind.
type CheckBinder interface {
	Bind(criteria *domain.Criteria) []string
}
