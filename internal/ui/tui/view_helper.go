package tui

import (
	"fmt"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ui/report"
)

// submissionItem adapts a submission to the bubbles list.
type submissionItem struct {
	sub domain.Submission
}

func (i submissionItem) Title() string {
	rubric := i.sub.Rubric
	if rubric == "" {
		rubric = "(no rubric)"
	}
	return fmt.Sprintf("%s  %s  %d pts", i.sub.Time.Local().Format("2006-01-02 15:04"), rubric, i.sub.Grade)
}

func (i submissionItem) Description() string {
	return report.Clamp(report.DataLine(i.sub.Data), 80)
}

func (i submissionItem) FilterValue() string {
	return i.sub.Rubric + " " + report.DataLine(i.sub.Data)
}

func renderSubmissionDetails(sub domain.Submission) string {
	var b strings.Builder

	if sub.ID != "" {
		fmt.Fprintf(&b, "ID: %s\n", sub.ID)
	}
	fmt.Fprintf(&b, "Time: %s\n", sub.Time.Local().Format("2006-01-02 15:04:05 MST"))
	if sub.Rubric != "" {
		fmt.Fprintf(&b, "Rubric: %s\n", sub.Rubric)
	}
	fmt.Fprintf(&b, "Grade: %d", sub.Grade)
	if sub.Penalty > 0 {
		fmt.Fprintf(&b, " (late penalty -%d)", sub.Penalty)
	}
	b.WriteString("\n\n")

	if len(sub.Data) > 0 {
		b.WriteString("Data:\n")
		for _, k := range sub.Data.Keys() {
			fmt.Fprintf(&b, "  - %s = %s\n", k, sub.Data[k])
		}
		b.WriteString("\n")
	}

	writeLines(&b, "Passed", sub.Passed)
	writeLines(&b, "Failed", sub.Failed)
	return b.String()
}

func writeLines(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteString(":\n")
	for _, l := range lines {
		b.WriteString("  - ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
