package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func rubricsCmd(opts *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "rubrics",
		Short: "Manage rubrics in a workspace",
	}

	c.AddCommand(rubricsListCmd(opts))
	return c
}

func rubricsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rubrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, opts, nil)
			if err != nil {
				return err
			}

			refs, err := ws.rubrics.ListRubrics(ws.root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(out, "(no rubrics found)")
				return nil
			}

			fmt.Fprintf(out, "Workspace: %s\n\n", ws.root)
			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				fmt.Fprintf(out, "- %s  (%s)\n", r.Name, rel)
			}
			return nil
		},
	}
}
