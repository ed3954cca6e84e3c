package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const loadTimeout = 10 * time.Second

func cmdLoadSubmissions(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.Source == nil {
			return submissionsLoadedMsg{err: errors.New("no submission source configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		subs, err := deps.Source.List(ctx, deps.Limit)
		if err != nil && deps.Logger != nil {
			deps.Logger.Error("tui.load_failed", "err", err)
		}
		return submissionsLoadedMsg{subs: subs, err: err}
	}
}
