package ports

import "github.com/llamicron/lab-grader/internal/domain"

type WorkspaceInitializer interface {
	Init(ws domain.WorkspaceSpec, force bool) error
}

// WorkspaceLocator finds a labgrader workspace root starting from an arbitrary directory.
type WorkspaceLocator interface {
	FindRoot(startDir string) (string, error)
}
