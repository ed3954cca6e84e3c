package tui

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

const crashNotice = "Something went wrong, press r to reload (details in the log)"

// recoverable is implemented by models that can describe themselves in a
// panic report and return to a usable state afterwards.
type recoverable interface {
	panicAttrs() []any
	afterPanic() tea.Model
}

// guarded keeps a panic in the browser from tearing down the terminal.
type guarded struct {
	inner tea.Model
	log   *slog.Logger
}

func guard(inner tea.Model, log *slog.Logger) guarded {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return guarded{inner: inner, log: log.With("component", "tui")}
}

func (g guarded) Init() tea.Cmd { return g.inner.Init() }

func (g guarded) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	defer func() {
		if v := recover(); v != nil {
			g.report("update", msg, v)
			if ap, ok := g.inner.(recoverable); ok {
				g.inner = ap.afterPanic()
			}
			next, cmd = g, nil
		}
	}()

	inner, cmd := g.inner.Update(msg)
	g.inner = inner
	return g, cmd
}

func (g guarded) View() (out string) {
	defer func() {
		if v := recover(); v != nil {
			g.report("view", nil, v)
			out = crashNotice + "\n"
		}
	}()
	return g.inner.View()
}

func (g guarded) report(phase string, msg tea.Msg, v any) {
	attrs := []any{"phase", phase, "panic", fmt.Sprint(v)}
	if msg != nil {
		attrs = append(attrs, "msg_type", fmt.Sprintf("%T", msg))
	}
	if r, ok := g.inner.(recoverable); ok {
		attrs = append(attrs, r.panicAttrs()...)
	}
	attrs = append(attrs, "stack", string(debug.Stack()))
	g.log.Error("tui.panic", attrs...)
}

func (m model) panicAttrs() []any {
	return []any{"screen", m.scr.String(), "submissions", m.count}
}

// afterPanic returns to the list, keeping the submissions already loaded.
func (m model) afterPanic() tea.Model {
	m.scr = screenList
	m.loading = false
	m.toast = crashNotice
	return m
}

var _ tea.Model = guarded{}
