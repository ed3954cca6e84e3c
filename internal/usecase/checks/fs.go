package checks

import (
	"os"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
)

// FileExists passes when the file or directory at data["path"] exists.
func FileExists(data domain.TestData) bool {
	p := strings.TrimSpace(data["path"])
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// FileContains passes when the file at data["path"] contains data["needle"].
// Unreadable paths (missing, directory, permissions) fail instead of erroring.
func FileContains(data domain.TestData) bool {
	b, err := os.ReadFile(strings.TrimSpace(data["path"]))
	if err != nil {
		return false
	}
	return strings.Contains(string(b), data["needle"])
}
