package tui

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

func (s screen) String() string {
	if s == screenDetail {
		return "detail"
	}
	return "list"
}

type model struct {
	theme Theme
	deps  Deps

	scr     screen
	list    list.Model
	loading bool
	toast   string
	count   int
}

// Run opens the submissions browser and blocks until the user quits.
func Run(deps Deps) error {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p := tea.NewProgram(guard(newModel(deps), log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Submissions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return model{
		theme:   DefaultTheme(),
		deps:    deps,
		scr:     screenList,
		list:    l,
		loading: true,
	}
}

func (m model) Init() tea.Cmd { return cmdLoadSubmissions(m.deps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case submissionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.toast = userMessage(msg.err)
			return m, nil
		}
		m.toast = ""
		// Newest first.
		items := make([]list.Item, 0, len(msg.subs))
		for i := len(msg.subs) - 1; i >= 0; i-- {
			items = append(items, submissionItem{sub: msg.subs[i]})
		}
		m.count = len(items)
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.scr == screenList {
				return m, tea.Quit
			}
			m.scr = screenList
			return m, nil

		case "enter":
			if m.scr == screenList {
				if _, ok := m.list.SelectedItem().(submissionItem); ok {
					m.scr = screenDetail
				}
				return m, nil
			}

		case "esc", "b":
			if m.scr == screenDetail {
				m.scr = screenList
				return m, nil
			}

		case "r":
			if m.scr == screenList && !m.loading {
				m.loading = true
				return m, cmdLoadSubmissions(m.deps)
			}
		}
	}

	if m.scr == screenList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)
	header := m.theme.Title.Render("labgrader results") + "\n"
	if m.deps.Title != "" {
		header += m.theme.Subtitle.Render(m.deps.Title) + "\n"
	}

	var status string
	switch {
	case m.loading:
		status = m.theme.Help.Render("Loading…")
	case m.toast != "":
		status = m.theme.Toast.Render(m.toast)
	default:
		status = m.theme.Help.Render(fmt.Sprintf("%d submissions", m.count))
	}

	switch m.scr {
	case screenDetail:
		it, ok := m.list.SelectedItem().(submissionItem)
		if !ok {
			return wrap.Render(header + "\nnothing selected")
		}
		card := m.theme.Card.Render(renderSubmissionDetails(it.sub))
		help := m.theme.Help.Render("esc/b back • q list")
		return wrap.Render(header + "\n" + card + "\n" + help)

	default:
		help := m.theme.Help.Render("↑/↓ navigate • enter details • / search • r reload • q quit")
		return wrap.Render(header + "\n" + status + "\n\n" + m.theme.Card.Render(m.list.View()) + "\n" + help)
	}
}
