package ports

import "github.com/llamicron/lab-grader/internal/domain"

// RubricLoader loads rubrics from a source (e.g., filesystem).
type RubricLoader interface {
	LoadRubric(path string) (*domain.Rubric, error)
	ListRubrics(root string) ([]domain.RubricRef, error)
}
