package checks

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
)

// CommandExists passes when data["command"] resolves on PATH.
func CommandExists(data domain.TestData) bool {
	name := strings.TrimSpace(data["command"])
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// EnvSet passes when the environment variable data["name"] is non-empty.
func EnvSet(data domain.TestData) bool {
	name := strings.TrimSpace(data["name"])
	return name != "" && os.Getenv(name) != ""
}

// commandOutput runs data["command"] with whitespace-split data["args"] and
// passes when it exits zero and stdout contains data["contains"].
func (r *Registry) commandOutput(data domain.TestData) bool {
	name := strings.TrimSpace(data["command"])
	if name == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, strings.Fields(data["args"])...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return false
	}
	return strings.Contains(stdout.String(), data["contains"])
}
