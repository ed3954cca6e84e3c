package tui

import "github.com/llamicron/lab-grader/internal/domain"

type submissionsLoadedMsg struct {
	subs []domain.Submission
	err  error
}
