package tui

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
)

var reLine = regexp.MustCompile(`(?i)\bline\s+(\d+)\b`)

// userMessage turns an error into a one-line status for the browser.
func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		base := "results"
		if strings.TrimSpace(oe.Path) != "" {
			base = filepath.Base(oe.Path)
		}

		switch oe.Kind {
		case domain.KindNotFound:
			return "Not found: " + base

		case domain.KindInvalidConfig:
			if line := extractLine(err.Error()); line != "" {
				return "Corrupt " + base + " at line " + line
			}
			return "Corrupt " + base

		case domain.KindExecution:
			if strings.Contains(oe.Op, "lock") {
				return base + " is locked by another process"
			}
			return "Could not read " + base + " (see logs)"
		}
	}

	return "Unexpected error (see logs)"
}

func extractLine(s string) string {
	m := reLine.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1]
	}
	return ""
}
