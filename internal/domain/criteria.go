package domain

import (
	"fmt"
	"sort"
)

// Criteria is an ordered collection of Criterion.
type Criteria struct {
	items []Criterion
}

func NewCriteria(cs ...Criterion) *Criteria {
	out := &Criteria{items: make([]Criterion, 0, len(cs))}
	for _, c := range cs {
		out.Add(c)
	}
	return out
}

// Add appends c. A stub derived from the name is made unique with a numeric
// suffix ("criterion" when the name has no usable characters); explicit stubs
// are kept as given.
func (cs *Criteria) Add(c Criterion) {
	if c.autoStub {
		base := c.Stub
		if base == "" {
			base = "criterion"
		}
		stub := base
		for n := 2; cs.has(stub); n++ {
			stub = fmt.Sprintf("%s-%d", base, n)
		}
		c.Stub = stub
	}
	cs.items = append(cs.items, c)
}

func (cs *Criteria) has(stub string) bool {
	_, ok := cs.Get(stub)
	return ok
}

// Get returns the criterion with the given stub.
func (cs *Criteria) Get(stub string) (*Criterion, bool) {
	for i := range cs.items {
		if cs.items[i].Stub == stub {
			return &cs.items[i], true
		}
	}
	return nil, false
}

// Attach binds fn to the criterion with the given stub.
func (cs *Criteria) Attach(stub string, fn TestFunc) error {
	c, ok := cs.Get(stub)
	if !ok {
		return &OpError{
			Op:   "criteria.attach",
			Kind: KindNotFound,
			Err:  fmt.Errorf("criterion with stub %q: %w", stub, ErrNotFound),
		}
	}
	c.Attach(fn)
	return nil
}

func (cs *Criteria) Len() int { return len(cs.items) }

// TotalPoints is the maximum possible grade, not a grade.
func (cs *Criteria) TotalPoints() int {
	total := 0
	for _, c := range cs.items {
		total += c.Worth
	}
	return total
}

// Sorted returns pointers to the criteria ordered by Index. Ties keep
// insertion order.
func (cs *Criteria) Sorted() []*Criterion {
	out := make([]*Criterion, len(cs.items))
	for i := range cs.items {
		out[i] = &cs.items[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Unattached lists the stubs of criteria without a test.
func (cs *Criteria) Unattached() []string {
	var out []string
	for _, c := range cs.items {
		if c.Test == nil {
			out = append(out, c.Stub)
		}
	}
	return out
}

// UnattachedLabels is Unattached with each criterion's Label.
func (cs *Criteria) UnattachedLabels() []string {
	var out []string
	for i := range cs.items {
		if cs.items[i].Test == nil {
			out = append(out, cs.items[i].Label())
		}
	}
	return out
}

// Each calls fn for every criterion in insertion order.
func (cs *Criteria) Each(fn func(c *Criterion)) {
	for i := range cs.items {
		fn(&cs.items[i])
	}
}
