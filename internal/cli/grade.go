package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/infra/jsonstore"
	"github.com/llamicron/lab-grader/internal/infra/logger"
	"github.com/llamicron/lab-grader/internal/infra/webclient"
	"github.com/llamicron/lab-grader/internal/ui/report"
	"github.com/llamicron/lab-grader/internal/usecase"
)

const defaultDataFile = "data.yaml"

func gradeCmd(opts *rootOptions) *cobra.Command {
	var rubric string
	var dataPairs []string
	var dataFile string
	var noSave bool
	var noColor bool
	var format string

	c := &cobra.Command{
		Use:   "grade",
		Short: "Grade a lab against a rubric and optionally submit the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "pretty", "json"); err != nil {
				return err
			}

			ws, err := loadWorkspace(cmd, opts, map[string]string{"grade.submit_url": "submit"})
			if err != nil {
				return err
			}

			rubricPath, err := resolveRubricPath(ws, rubric)
			if err != nil {
				return err
			}

			data, err := loadGradeData(ws, dataFile, dataPairs)
			if err != nil {
				return err
			}

			gradeOpts := []usecase.GradeOption{
				usecase.WithSubmitter(webclient.New(ws.client)),
				usecase.WithLogger(logger.Component("grade")),
			}
			if !noSave {
				gradeOpts = append(gradeOpts, usecase.WithReceipts(jsonstore.New(ws.root, ws.cfg, jsonstore.WithIndex(true))))
			}

			uc := usecase.NewGradeLab(ws.rubrics, ws.checks, gradeOpts...)
			rep, err := uc.Execute(cmd.Context(), rubricPath, data, ws.cfg.Grade.SubmitURL)
			if rep.Submission != nil && rep.Rubric != nil {
				color := ws.cfg.Grade.Color && !noColor
				if perr := printGrade(cmd.OutOrStdout(), rep, format, color); perr != nil {
					return perr
				}
			}
			// Failing criteria lower the grade; they are not a command failure.
			return err
		},
	}

	c.Flags().StringVarP(&rubric, "rubric", "r", "", "Rubric name or path (required)")
	c.Flags().StringArrayVar(&dataPairs, "data", nil, "Submission data as key=value (repeatable)")
	c.Flags().StringVar(&dataFile, "data-file", "", "YAML file with submission data (default: <workspace>/data.yaml if present)")
	c.Flags().String("submit", "", "Submission server URL (overrides grade.submit_url)")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save a receipt under receipts/")
	c.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")

	_ = c.MarkFlagRequired("rubric")
	return c
}

// loadGradeData merges the data file (if any) with --data pairs; pairs win.
func loadGradeData(ws *workspaceCtx, dataFile string, pairs []string) (domain.TestData, error) {
	flagData, err := parseDataFlags(pairs)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(dataFile)
	if path == "" {
		def := filepath.Join(ws.root, defaultDataFile)
		if !fileExists(def) {
			return flagData, nil
		}
		path = def
	} else if !filepath.IsAbs(path) {
		if path, err = filepath.Abs(path); err != nil {
			return nil, err
		}
	}

	fileData, err := ws.data.LoadData(path)
	if err != nil {
		return nil, err
	}
	return domain.MergeData(fileData, flagData), nil
}

func printGrade(w io.Writer, rep usecase.GradeReport, format string, color bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		payload := map[string]any{
			"rubric":     rep.Rubric.Name,
			"total":      rep.Rubric.TotalPoints(),
			"receipt_id": rep.ReceiptID,
			"submitted":  rep.Submitted,
			"submission": rep.Submission,
		}
		return enc.Encode(payload)
	case "pretty", "":
		r := report.New(color)
		fmt.Fprint(w, r.Rubric(rep.Rubric))
		fmt.Fprintln(w)
		fmt.Fprint(w, r.Summary(rep.Submission, rep.Rubric.TotalPoints()))
		if rep.ReceiptID != "" {
			fmt.Fprintf(w, "\nReceipt: %s\n", rep.ReceiptID)
		}
		if rep.Submitted {
			fmt.Fprintln(w, "Submitted.")
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func checkFormat(format string, allowed ...string) error {
	if format == "" {
		return nil
	}
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (expected %s)", format, strings.Join(allowed, "|"))
}
