package ui

import (
	"github.com/charmbracelet/lipgloss"

	"todo/internal/config"
	"todo/internal/task"
)

// Theme is the set of styles derived once from the configured colours.
type Theme struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Border   lipgloss.Style

	priority map[task.Priority]lipgloss.Style
	status   map[task.Status]lipgloss.Style
}

func NewTheme(c config.Theme) Theme {
	fg := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return Theme{
		Title:    fg(c.Primary).Bold(true),
		Header:   fg(c.Accent).Bold(true),
		Text:     fg(c.Text),
		Muted:    fg(c.Muted),
		Selected: fg(c.Text).Background(lipgloss.Color(c.Selected)).Bold(true),
		Cursor:   fg(c.Accent).Bold(true),
		Warning:  fg(c.Warning),
		Error:    fg(c.Error).Bold(true),
		Border:   fg(c.Disabled),
		priority: map[task.Priority]lipgloss.Style{
			task.P0: fg(c.PriorityUrgent).Bold(true),
			task.P1: fg(c.PriorityHigh),
			task.P2: fg(c.PriorityMedium),
			task.P3: fg(c.PriorityLow),
			task.P4: fg(c.PriorityWishlist),
			task.P5: fg(c.Muted),
		},
		status: map[task.Status]lipgloss.Style{
			task.Todo:       fg(c.StatusTodo),
			task.InProgress: fg(c.StatusInProgress),
			task.Done:       fg(c.StatusDone),
			task.Archived:   fg(c.StatusArchived).Faint(true),
		},
	}
}

func (th Theme) Priority(p task.Priority) lipgloss.Style {
	return th.priority[p]
}

func (th Theme) Status(s task.Status) lipgloss.Style {
	return th.status[s]
}
