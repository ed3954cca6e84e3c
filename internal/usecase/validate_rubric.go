package usecase

import (
	"context"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

type ValidateRubric struct {
	rubrics ports.RubricLoader
	binder  ports.CheckBinder
}

func NewValidateRubric(rl ports.RubricLoader, binder ports.CheckBinder) *ValidateRubric {
	return &ValidateRubric{rubrics: rl, binder: binder}
}

// Execute loads and validates a rubric and checks every criterion can be
// bound to a test. No test runs.
func (uc *ValidateRubric) Execute(ctx context.Context, rubricPath string) (*domain.Rubric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBound(uc.rubrics, uc.binder, rubricPath)
}
