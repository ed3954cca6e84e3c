// Package checks holds the named test functions a rubric can refer to via
// a criterion's func field.
package checks

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

const defaultTimeout = 30 * time.Second

type Registry struct {
	mu      sync.RWMutex
	funcs   map[string]domain.TestFunc
	client  *http.Client
	timeout time.Duration
}

type Option func(*Registry)

// WithHTTPClient sets the client used by the http_* checks.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

// WithTimeout bounds command and HTTP checks.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry returns a registry preloaded with the built-in checks.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs:   map[string]domain.TestFunc{},
		client:  &http.Client{Timeout: defaultTimeout},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Register("file_exists", FileExists)
	r.Register("file_contains", FileContains)
	r.Register("command_exists", CommandExists)
	r.Register("command_output", r.commandOutput)
	r.Register("env_set", EnvSet)
	r.Register("data_equals", DataEquals)
	r.Register("data_present", DataPresent)
	r.Register("http_status", r.httpStatus)
	r.Register("http_jsonpath", r.httpJSONPath)
	return r
}

var _ ports.CheckBinder = (*Registry)(nil)

// Register adds or replaces a named check.
func (r *Registry) Register(name string, fn domain.TestFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[strings.TrimSpace(name)] = fn
}

func (r *Registry) Lookup(name string) (domain.TestFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[strings.TrimSpace(name)]
	return fn, ok
}

// Names returns the registered check names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bind attaches a check to every criterion that has none yet, looked up by
// Func and then by Stub. It returns the stubs left unattached.
func (r *Registry) Bind(criteria *domain.Criteria) []string {
	criteria.Each(func(c *domain.Criterion) {
		if c.Test != nil {
			return
		}
		if fn, ok := r.Lookup(c.Func); ok && c.Func != "" {
			c.Attach(fn)
			return
		}
		if fn, ok := r.Lookup(c.Stub); ok {
			c.Attach(fn)
		}
	})
	return criteria.Unattached()
}
