package tui

import (
	"log/slog"

	"github.com/llamicron/lab-grader/internal/ports"
)

type Deps struct {
	Source ports.SubmissionSource
	// Title names the source in the header, e.g. the results file path.
	Title string
	Limit int

	Logger *slog.Logger
}
