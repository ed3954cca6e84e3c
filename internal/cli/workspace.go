package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/infra/httpclient"
	"github.com/llamicron/lab-grader/internal/infra/workspacefinder"
	"github.com/llamicron/lab-grader/internal/infra/yamldata"
	"github.com/llamicron/lab-grader/internal/infra/yamlrubric"
	"github.com/llamicron/lab-grader/internal/ports"
	"github.com/llamicron/lab-grader/internal/usecase/checks"
)

type workspaceCtx struct {
	root string
	cfg  domain.Config

	rubrics ports.RubricLoader
	data    ports.DataLoader
	checks  *checks.Registry
	client  *http.Client
}

// loadWorkspace resolves the workspace root and its layered configuration.
// flagKeys maps config keys to flag names on cmd that may override them.
func loadWorkspace(cmd *cobra.Command, opts *rootOptions, flagKeys map[string]string) (*workspaceCtx, error) {
	root, err := resolveWorkspaceRoot(opts.workspace)
	if err != nil {
		return nil, err
	}

	configFile := strings.TrimSpace(opts.configFile)
	if configFile != "" {
		configFile, _ = filepath.Abs(configFile)
	}

	cfg, err := workspacefinder.LoadConfig(root, workspacefinder.LoadOptions{
		ConfigFile: configFile,
		Cmd:        cmd,
		FlagKeys:   flagKeys,
	})
	if err != nil {
		return nil, err
	}

	client := httpclient.New(httpclient.DefaultConfig())

	return &workspaceCtx{
		root:    root,
		cfg:     cfg,
		rubrics: yamlrubric.NewLoader(yamlrubric.WithRubricsDir(cfg.Paths.RubricsDir)),
		data:    yamldata.NewLoader(),
		checks:  checks.NewRegistry(checks.WithHTTPClient(client)),
		client:  client,
	}, nil
}

func findWorkspaceRoot(workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	var locator ports.WorkspaceLocator = workspacefinder.NewFinder()
	return locator.FindRoot(wd)
}

// resolveWorkspaceRoot is findWorkspaceRoot that falls back to the working
// directory, so grading works outside an initialized workspace.
func resolveWorkspaceRoot(workspaceFlag string) (string, error) {
	root, err := findWorkspaceRoot(workspaceFlag)
	if err == nil {
		return root, nil
	}
	if strings.TrimSpace(workspaceFlag) != "" {
		return "", err
	}

	wd, werr := os.Getwd()
	if werr != nil {
		return "", fmt.Errorf("get working directory: %w", werr)
	}
	return filepath.Abs(wd)
}

func resolveRubricPath(ws *workspaceCtx, arg string) (string, error) {
	in := strings.TrimSpace(arg)
	if in == "" {
		return "", fmt.Errorf("rubric is required (use --rubric or -r)")
	}

	if looksLikePath(in) {
		p := in
		if !filepath.IsAbs(p) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", err
			}
			p = abs
		}
		return filepath.Clean(p), nil
	}

	rubricsDir := filepath.Join(ws.root, ws.cfg.Paths.RubricsDir)

	// "lab1.yaml" is a file under the rubrics dir, or in the working directory.
	if hasYAMLExt(in) {
		p := filepath.Join(rubricsDir, in)
		if fileExists(p) {
			return p, nil
		}
		if fileExists(in) {
			return filepath.Abs(in)
		}
	}

	// "lab1" tries lab1.yaml / lab1.yml.
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(rubricsDir, in+ext)
		if fileExists(p) {
			return p, nil
		}
	}

	// Last resort: match the rubric "name" field.
	refs, err := ws.rubrics.ListRubrics(ws.root)
	if err == nil {
		for _, r := range refs {
			if strings.EqualFold(r.Name, in) {
				return r.Path, nil
			}
		}
	}

	return "", fmt.Errorf("rubric %q not found in %q", in, rubricsDir)
}

// inWorkspace resolves a configured path against the workspace root.
func inWorkspace(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// parseDataFlags turns repeated --data key=value flags into test data.
func parseDataFlags(pairs []string) (domain.TestData, error) {
	data := domain.TestData{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --data %q (expected key=value)", p)
		}
		data[k] = v
	}
	return data, nil
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, string(filepath.Separator))
}

func hasYAMLExt(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
