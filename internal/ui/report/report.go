// Package report renders rubrics and graded submissions for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/llamicron/lab-grader/internal/domain"
)

const notTested = "not tested"

type Styles struct {
	Title   lipgloss.Style
	Subtle  lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Pending lipgloss.Style
	// PassText and FailText color status messages without bold.
	PassText lipgloss.Style
	FailText lipgloss.Style
	Desc     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Underline(true),
		Subtle:  lipgloss.NewStyle().Faint(true),
		Pass:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Fail:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		Pending: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),

		PassText: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		FailText: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Desc:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	}
}

// Renderer produces plain text when color is off.
type Renderer struct {
	color  bool
	styles Styles
}

func New(color bool) *Renderer {
	return &Renderer{color: color, styles: DefaultStyles()}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Criterion renders one criterion block. Hidden criteria render nothing.
func (r *Renderer) Criterion(c *domain.Criterion) string {
	if c.Hide {
		return ""
	}

	name := r.style(r.styles.Pending, c.Name)
	status := notTested
	switch {
	case c.Passed():
		name = r.style(r.styles.Pass, c.Name)
		status = r.style(r.styles.PassText, c.SuccessMessage())
	case c.Tested():
		name = r.style(r.styles.Fail, c.Name)
		status = r.style(r.styles.FailText, c.FailureMessage())
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('\n')
	// The description line is kept even when empty so blocks line up.
	b.WriteString(r.style(r.styles.Desc, c.Desc))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Worth: %d pts\n", c.Worth)
	fmt.Fprintf(&b, "Status: %s\n", status)
	return b.String()
}

// Criteria renders every visible criterion in index order, blank-line separated.
func (r *Renderer) Criteria(cs *domain.Criteria) string {
	var blocks []string
	for _, c := range cs.Sorted() {
		if s := r.Criterion(c); s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n")
}

// Rubric renders the rubric header followed by its criteria.
func (r *Renderer) Rubric(rb *domain.Rubric) string {
	var b strings.Builder
	b.WriteString(r.style(r.styles.Title, rb.Name))
	b.WriteByte('\n')
	if rb.Desc != "" {
		b.WriteString(rb.Desc)
		b.WriteByte('\n')
	}
	if rb.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", rb.Deadline.Format("2006-01-02 15:04 MST"))
	}
	b.WriteByte('\n')
	b.WriteString(r.Criteria(rb.Criteria))
	return b.String()
}

// Summary renders the grade line and the pass/fail lists of a submission.
// total is the maximum possible grade.
func (r *Renderer) Summary(sub *domain.Submission, total int) string {
	var b strings.Builder

	grade := fmt.Sprintf("Grade: %d/%d", sub.Grade, total)
	if sub.Penalty > 0 {
		grade += fmt.Sprintf(" (late penalty -%d)", sub.Penalty)
	}
	st := r.styles.Pass
	if len(sub.Failed) > 0 {
		st = r.styles.Fail
	}
	b.WriteString(r.style(st, grade))
	b.WriteByte('\n')

	for _, line := range sub.Passed {
		b.WriteString(r.style(r.styles.Pass, "  ✓ "))
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range sub.Failed {
		b.WriteString(r.style(r.styles.Fail, "  ✗ "))
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Table renders submissions one per line: time, rubric, grade, data.
func (r *Renderer) Table(subs []domain.Submission) string {
	if len(subs) == 0 {
		return r.style(r.styles.Subtle, "no submissions") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("%-20s  %-20s  %5s  %s", "TIME", "RUBRIC", "GRADE", "DATA")
	b.WriteString(r.style(r.styles.Title, header))
	b.WriteByte('\n')
	for _, s := range subs {
		rubric := s.Rubric
		if rubric == "" {
			rubric = "-"
		}
		fmt.Fprintf(&b, "%-20s  %-20s  %5d  %s\n",
			s.Time.Local().Format("2006-01-02 15:04:05"),
			Clamp(rubric, 20),
			s.Grade,
			DataLine(s.Data),
		)
	}
	return b.String()
}

// DataLine renders data as sorted k=v pairs.
func DataLine(d domain.TestData) string {
	parts := make([]string, 0, len(d))
	for _, k := range d.Keys() {
		parts = append(parts, k+"="+d[k])
	}
	return strings.Join(parts, " ")
}

// Clamp shortens s to max runes, marking the cut with an ellipsis.
func Clamp(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max-1]) + "…"
}
