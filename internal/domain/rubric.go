package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// LateStatus classifies a submission time against a rubric's deadlines.
type LateStatus string

const (
	OnTime LateStatus = "on_time"
	Late   LateStatus = "late"
	Closed LateStatus = "closed"
)

// Rubric is a named set of criteria plus submission policy.
type Rubric struct {
	Name     string
	Desc     string
	Criteria *Criteria

	// Total is the declared maximum grade (optional).
	Total *int

	Deadline      *time.Time
	FinalDeadline *time.Time
	AllowLate     bool
	// LatePenalty is subtracted once from late submissions.
	LatePenalty int
	// LatePenaltyPerDay is subtracted for every started day past Deadline.
	LatePenaltyPerDay int
}

// RubricRef is a lightweight reference to a rubric file on disk.
type RubricRef struct {
	Name string
	Path string
}

// TotalPoints returns the declared total, or the sum of criterion worth.
func (r *Rubric) TotalPoints() int {
	if r.Total != nil {
		return *r.Total
	}
	if r.Criteria == nil {
		return 0
	}
	return r.Criteria.TotalPoints()
}

// Validate checks the rubric's internal consistency.
func (r *Rubric) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Criteria == nil || r.Criteria.Len() == 0 {
		errs = append(errs, errors.New("at least one criterion is required"))
	} else {
		seen := map[string]bool{}
		r.Criteria.Each(func(c *Criterion) {
			if seen[c.Stub] {
				errs = append(errs, fmt.Errorf("duplicate criterion stub %q", c.Stub))
			}
			seen[c.Stub] = true
		})
		if r.Total != nil && *r.Total != r.Criteria.TotalPoints() {
			errs = append(errs, fmt.Errorf("total %d does not match criteria worth %d", *r.Total, r.Criteria.TotalPoints()))
		}
	}
	if r.Deadline != nil && r.FinalDeadline != nil && r.FinalDeadline.Before(*r.Deadline) {
		errs = append(errs, errors.New("final_deadline is before deadline"))
	}
	if r.LatePenalty < 0 || r.LatePenaltyPerDay < 0 {
		errs = append(errs, errors.New("late penalties must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return &OpError{
		Op:   "rubric.validate",
		Kind: KindInvalidConfig,
		Err:  fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...)),
	}
}

// LateStatus reports whether a submission at t is on time, late, or no
// longer accepted.
func (r *Rubric) LateStatus(t time.Time) LateStatus {
	if r.FinalDeadline != nil && t.After(*r.FinalDeadline) {
		return Closed
	}
	if r.Deadline == nil || !t.After(*r.Deadline) {
		return OnTime
	}
	if !r.AllowLate {
		return Closed
	}
	return Late
}

// Penalty returns the points deducted for a submission at t.
func (r *Rubric) Penalty(t time.Time) int {
	if r.LateStatus(t) != Late {
		return 0
	}
	days := int(math.Ceil(t.Sub(*r.Deadline).Hours() / 24))
	return r.LatePenalty + r.LatePenaltyPerDay*days
}
