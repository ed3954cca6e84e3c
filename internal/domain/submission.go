package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Submission is one student's graded bundle of data.
type Submission struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Rubric string    `json:"rubric,omitempty"`
	Grade  int       `json:"grade"`
	// Penalty is the late deduction already applied to Grade.
	Penalty int      `json:"penalty,omitempty"`
	Data    TestData `json:"data"`
	Passed  []string `json:"passed"`
	Failed  []string `json:"failed"`
}

func NewSubmission() *Submission {
	return &Submission{
		ID:     uuid.NewString(),
		Time:   time.Now(),
		Data:   TestData{},
		Passed: []string{},
		Failed: []string{},
	}
}

// SubmissionFromData creates a submission and attaches data in one step.
func SubmissionFromData(data TestData) *Submission {
	s := NewSubmission()
	s.UseData(data)
	return s
}

func (s *Submission) UseData(data TestData) {
	s.Data = data.Clone()
}

// Pass records a passed criterion line.
func (s *Submission) Pass(line string) {
	s.Passed = append(s.Passed, line)
}

// Fail records a failed criterion line.
func (s *Submission) Fail(line string) {
	s.Failed = append(s.Failed, line)
}

// GradeAgainst tests every criterion, in index order, with the submission's
// data. Nothing runs if any criterion lacks a test.
func (s *Submission) GradeAgainst(criteria *Criteria) error {
	if missing := criteria.UnattachedLabels(); len(missing) > 0 {
		return &OpError{
			Op:   "submission.grade",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("%w: %s", ErrNoTest, strings.Join(missing, ", ")),
		}
	}

	r := NewArgResolver()
	for _, c := range criteria.Sorted() {
		ok, err := c.testWith(r, s.Data)
		if err != nil {
			f := false
			c.Status = &f
			s.Fail(fmt.Sprintf("%s: %s (%v)", c.Name, c.FailureMessage(), err))
			continue
		}
		if ok {
			s.Grade += c.Worth
			s.Pass(fmt.Sprintf("%s: %s", c.Name, c.SuccessMessage()))
		} else {
			s.Fail(fmt.Sprintf("%s: %s", c.Name, c.FailureMessage()))
		}
	}
	return nil
}

// GradeAgainstRubric grades the submission and applies the rubric's late
// policy for s.Time. The penalty never takes the grade below zero.
func (s *Submission) GradeAgainstRubric(r *Rubric) error {
	if r.LateStatus(s.Time) == Closed {
		return &OpError{
			Op:   "submission.grade",
			Kind: KindClosed,
			Err:  fmt.Errorf("rubric %q: %w", r.Name, ErrSubmissionClosed),
		}
	}

	s.Rubric = r.Name
	if err := s.GradeAgainst(r.Criteria); err != nil {
		return err
	}

	penalty := r.Penalty(s.Time)
	if penalty > s.Grade {
		penalty = max(s.Grade, 0)
	}
	s.Penalty = penalty
	s.Grade -= penalty
	return nil
}

// CSVHeader returns the column names matching CSVRecord.
func (s *Submission) CSVHeader() []string {
	return append([]string{"time", "grade", "passed", "failed"}, s.Data.Keys()...)
}

// CSVRecord returns the submission as one CSV row. Data values follow their
// sorted keys.
func (s *Submission) CSVRecord() []string {
	return append([]string{
		s.Time.Format(time.RFC3339),
		strconv.Itoa(s.Grade),
		JoinLines(s.Passed),
		JoinLines(s.Failed),
	}, s.Data.CSVValues()...)
}

// CSVRecordFor lays the submission out for an existing header: known data
// keys fill their columns, unknown keys are dropped.
func (s *Submission) CSVRecordFor(header []string) []string {
	base := s.CSVRecord()[:4]
	out := make([]string, len(header))
	for i, col := range header {
		switch {
		case i < 4:
			out[i] = base[i]
		default:
			out[i] = s.Data[col]
		}
	}
	return out
}

// JoinLines joins pass/fail lines with ';' for one CSV cell. Backslashes and
// semicolons inside a line are escaped so SplitLines restores it exactly.
func JoinLines(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = lineEscaper.Replace(l)
	}
	return strings.Join(escaped, ";")
}

// SplitLines reverses JoinLines. An empty cell is no lines.
func SplitLines(cell string) []string {
	if cell == "" {
		return []string{}
	}

	var out []string
	var cur strings.Builder
	escaped := false
	for _, r := range cell {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(out, cur.String())
}

var lineEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`)
