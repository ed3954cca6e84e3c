package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArgResolver resolves {{key}} placeholders in criterion arguments against
// submission data. It supports built-ins: {{$timestamp}} and {{$uuid}}.
type ArgResolver struct {
	now    func() time.Time
	uuidV4 func() (string, error)
}

// ArgResolverOption configures ArgResolver.
type ArgResolverOption func(*ArgResolver)

// WithNow overrides the clock (useful for tests).
func WithNow(now func() time.Time) ArgResolverOption {
	return func(r *ArgResolver) { r.now = now }
}

// WithUUID overrides UUID generation (useful for tests).
func WithUUID(gen func() (string, error)) ArgResolverOption {
	return func(r *ArgResolver) { r.uuidV4 = gen }
}

func NewArgResolver(opts ...ArgResolverOption) *ArgResolver {
	r := &ArgResolver{
		now: time.Now,
		uuidV4: func() (string, error) {
			u, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return u.String(), nil
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a copy of args with every placeholder replaced.
// Built-ins are computed once per call so repeated {{$uuid}} stay consistent.
func (r *ArgResolver) Resolve(args TestData, data TestData) (TestData, error) {
	out := TestData{}
	if len(args) == 0 {
		return out, nil
	}

	builtins, err := r.builtins()
	if err != nil {
		return nil, err
	}

	for _, k := range args.Keys() {
		v, err := resolveString(data, builtins, args[k])
		if err != nil {
			return nil, &OpError{
				Op:   "args.resolve",
				Kind: kindFrom(err),
				Err:  fmt.Errorf("arg %s: %w", k, err),
			}
		}
		out[k] = v
	}
	return out, nil
}

// ResolveString resolves a single string against data.
func (r *ArgResolver) ResolveString(s string, data TestData) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	builtins, err := r.builtins()
	if err != nil {
		return "", err
	}
	return resolveString(data, builtins, s)
}

func (r *ArgResolver) builtins() (TestData, error) {
	u, err := r.uuidV4()
	if err != nil {
		return nil, &OpError{
			Op:   "args.builtins.uuid",
			Kind: KindExecution,
			Err:  err,
		}
	}
	return TestData{
		"$timestamp": strconv.FormatInt(r.now().Unix(), 10),
		"$uuid":      u,
	}, nil
}

func resolveString(data TestData, builtins TestData, s string) (string, error) {
	// Fast path: no token start.
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		if i+1 < len(s) && s[i] == '{' && s[i+1] == '{' {
			start := i + 2

			end := strings.Index(s[start:], "}}")
			if end < 0 {
				return "", &OpError{
					Op:   "args.resolve",
					Kind: KindInvalidConfig,
					Err:  errors.New("unclosed placeholder"),
				}
			}
			end = start + end

			name := strings.TrimSpace(s[start:end])
			if name == "" {
				return "", &OpError{
					Op:   "args.resolve",
					Kind: KindInvalidConfig,
					Err:  errors.New("empty placeholder"),
				}
			}

			val, ok := builtins[name]
			if !ok {
				val, ok = data[name]
			}
			if !ok {
				return "", &OpError{
					Op:   "args.resolve",
					Kind: KindMissingVar,
					Err:  fmt.Errorf("%w: %s", ErrMissingVar, name),
				}
			}

			b.WriteString(val)
			i = end + 2
			continue
		}

		b.WriteByte(s[i])
		i++
	}

	return b.String(), nil
}

func kindFrom(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindExecution
}
