package ui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/session"
)

// Model adapts a session driver to bubbletea. All state lives in the
// session; the model only translates keys and draws views.
type Model struct {
	driver *session.Driver
	theme  Theme
	keys   KeyMap
	help   help.Model
}

func New(d *session.Driver, theme Theme, keys KeyMap) Model {
	h := help.New()
	h.Styles.ShortKey = theme.Header
	h.Styles.ShortDesc = theme.Muted
	h.Styles.FullKey = theme.Header
	h.Styles.FullDesc = theme.Muted
	return Model{
		driver: d,
		theme:  theme,
		keys:   keys,
		help:   h,
	}
}

// Run drives the session in the terminal until it closes.
func Run(d *session.Driver, theme Theme, keys KeyMap) error {
	_, err := tea.NewProgram(New(d, theme, keys), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		for _, ev := range Events(msg) {
			m.driver.Dispatch(ev)
			if m.driver.Session().Mode() == session.Closed {
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m Model) View() string {
	return RenderSession(m.driver.Session().View(), m.theme, m.keys, m.help)
}
