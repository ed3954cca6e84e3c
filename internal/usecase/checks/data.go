package checks

import (
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
)

// DataEquals passes when the submission value under data["key"] equals data["value"].
func DataEquals(data domain.TestData) bool {
	key := strings.TrimSpace(data["key"])
	if key == "" {
		return false
	}
	v, ok := data[key]
	return ok && v == data["value"]
}

// DataPresent passes when the submission value under data["key"] is non-blank.
func DataPresent(data domain.TestData) bool {
	key := strings.TrimSpace(data["key"])
	if key == "" {
		return false
	}
	return strings.TrimSpace(data[key]) != ""
}
