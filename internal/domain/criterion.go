package domain

import (
	"fmt"
	"strings"
)

// TestFunc decides whether a criterion passes for the given data.
type TestFunc func(data TestData) bool

const (
	DefaultSuccessMessage = "passed"
	DefaultFailureMessage = "failed"
)

// Criterion is one gradable item of a rubric.
type Criterion struct {
	// Stub identifies the criterion when attaching tests.
	Stub string
	Name string
	// Worth is added to the grade when the test passes. May be negative.
	Worth    int
	Messages [2]string
	Desc     string
	// Index orders criteria when grading; lower runs first.
	Index int
	// Hide suppresses the criterion in reports.
	Hide bool
	// Func names the registered test function to bind.
	Func string
	// Args are merged over submission data when the test runs.
	Args TestData

	Test TestFunc
	// Status is nil until the criterion has been tested.
	Status *bool

	// autoStub marks a stub derived from Name; Criteria.Add may suffix it.
	autoStub bool
}

func (c *Criterion) SuccessMessage() string { return c.Messages[0] }

func (c *Criterion) FailureMessage() string { return c.Messages[1] }

func (c *Criterion) SetDesc(desc string) { c.Desc = desc }

func (c *Criterion) SetHide(hide bool) { c.Hide = hide }

// Label is the stub, followed by the Func name when one is set.
func (c *Criterion) Label() string {
	if c.Func != "" && c.Func != c.Stub {
		return fmt.Sprintf("%s (func %s)", c.Stub, c.Func)
	}
	return c.Stub
}

// Attach replaces the criterion's test.
func (c *Criterion) Attach(fn TestFunc) { c.Test = fn }

func (c *Criterion) Tested() bool { return c.Status != nil }

func (c *Criterion) Passed() bool { return c.Status != nil && *c.Status }

// ResetStatus marks the criterion as not tested.
func (c *Criterion) ResetStatus() { c.Status = nil }

// TestWithData runs the test with data, overlaid by the criterion's resolved
// Args, and records the outcome in Status.
func (c *Criterion) TestWithData(data TestData) (bool, error) {
	return c.testWith(NewArgResolver(), data)
}

// Run is TestWithData with empty data.
func (c *Criterion) Run() (bool, error) {
	return c.TestWithData(TestData{})
}

func (c *Criterion) testWith(r *ArgResolver, data TestData) (bool, error) {
	if c.Test == nil {
		return false, &OpError{
			Op:   "criterion.test",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("criterion %q: %w", c.Name, ErrNoTest),
		}
	}

	args, err := r.Resolve(c.Args, data)
	if err != nil {
		return false, fmt.Errorf("criterion %q: %w", c.Name, err)
	}

	ok := c.Test(MergeData(data, args))
	c.Status = &ok
	return ok, nil
}

// CriterionBuilder assembles a Criterion fluently.
type CriterionBuilder struct {
	c       Criterion
	stubSet bool
}

// NewCriterion starts a builder with default messages and no test.
func NewCriterion(name string) *CriterionBuilder {
	return &CriterionBuilder{c: Criterion{
		Name:     name,
		Messages: [2]string{DefaultSuccessMessage, DefaultFailureMessage},
		Args:     TestData{},
	}}
}

func (b *CriterionBuilder) Worth(w int) *CriterionBuilder {
	b.c.Worth = w
	return b
}

func (b *CriterionBuilder) Messages(success, failure string) *CriterionBuilder {
	b.c.Messages = [2]string{success, failure}
	return b
}

func (b *CriterionBuilder) Desc(desc string) *CriterionBuilder {
	b.c.Desc = desc
	return b
}

func (b *CriterionBuilder) Func(name string) *CriterionBuilder {
	b.c.Func = name
	return b
}

func (b *CriterionBuilder) Index(i int) *CriterionBuilder {
	b.c.Index = i
	return b
}

func (b *CriterionBuilder) Hide(h bool) *CriterionBuilder {
	b.c.Hide = h
	return b
}

func (b *CriterionBuilder) Stub(stub string) *CriterionBuilder {
	b.c.Stub = stub
	b.stubSet = true
	return b
}

func (b *CriterionBuilder) Arg(key, value string) *CriterionBuilder {
	b.c.Args[key] = value
	return b
}

func (b *CriterionBuilder) Test(fn TestFunc) *CriterionBuilder {
	b.c.Test = fn
	return b
}

// Build returns the criterion. Without an explicit stub, the stub is a slug
// of the name; Func only selects the test to bind.
func (b *CriterionBuilder) Build() Criterion {
	out := b.c
	out.Args = b.c.Args.Clone()
	if !b.stubSet {
		out.Stub = Slug(out.Name)
		out.autoStub = true
	}
	return out
}

// Slug produces a lowercase, dash-separated identifier safe for filenames.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
