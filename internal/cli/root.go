package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/infra/logger"
	"github.com/llamicron/lab-grader/internal/infra/workspacefinder"
)

type rootOptions struct {
	configFile string
	workspace  string
	debug      bool
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	_ = logger.Close()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "labgrader",
		Short:        "labgrader grades labs against YAML rubrics",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Logs only go to disk inside a workspace; elsewhere they are discarded.
			root, err := findWorkspaceRoot(opts.workspace)
			if err != nil {
				return nil
			}
			_, _ = logger.Setup(logger.Config{Root: root, Debug: debugEnabled(opts, root)})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: <workspace>/labgrader.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable verbose logging to .labgrader/logs/labgrader.log")

	cmd.AddCommand(
		initCmd(),
		gradeCmd(opts),
		validateCmd(opts),
		rubricsCmd(opts),
		serveCmd(opts),
		resultsCmd(opts),
		versionCmd(),
	)
	return cmd
}

// debugEnabled is --debug, or log.debug from the workspace config and
// LABGRADER_LOG_DEBUG. Config errors are left for the command to report.
func debugEnabled(opts *rootOptions, root string) bool {
	if opts.debug {
		return true
	}
	configFile := strings.TrimSpace(opts.configFile)
	if configFile != "" {
		configFile, _ = filepath.Abs(configFile)
	}
	cfg, err := workspacefinder.LoadConfig(root, workspacefinder.LoadOptions{ConfigFile: configFile})
	if err != nil {
		return false
	}
	return cfg.Log.Debug
}
