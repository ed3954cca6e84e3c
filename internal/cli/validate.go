package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/usecase"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	var rubric string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a rubric and check every criterion has a test (nothing runs)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, opts, nil)
			if err != nil {
				return err
			}

			rubricPath, err := resolveRubricPath(ws, rubric)
			if err != nil {
				return err
			}

			uc := usecase.NewValidateRubric(ws.rubrics, ws.checks)
			r, err := uc.Execute(cmd.Context(), rubricPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%d criteria, %d pts)\n", r.Name, r.Criteria.Len(), r.TotalPoints())
			return nil
		},
	}

	c.Flags().StringVarP(&rubric, "rubric", "r", "", "Rubric name or path (required)")

	_ = c.MarkFlagRequired("rubric")
	return c
}
