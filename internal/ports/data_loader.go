package ports

import "github.com/llamicron/lab-grader/internal/domain"

// DataLoader reads submission data from a source (e.g., a YAML file).
type DataLoader interface {
	LoadData(path string) (domain.TestData, error)
}
