package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/llamicron/lab-grader/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("labgrader %s (commit=%s, date=%s)", Version, Commit, Date)
}
