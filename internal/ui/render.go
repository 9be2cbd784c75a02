package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"todo/internal/query"
	"todo/internal/session"
	"todo/internal/task"
)

const empty = "(empty)"

// RenderSession draws a session view.
func RenderSession(v session.View, th Theme, keys KeyMap, h help.Model) string {
	var b strings.Builder

	header := th.Title.Render("todo")
	if v.Dirty {
		header += th.Warning.Render(" *")
	}
	b.WriteString(header + "\n\n")

	if v.Mode == session.Editing && v.Editor != nil {
		b.WriteString(renderEditor(*v.Editor, th))
	} else {
		b.WriteString(renderSearch(v, th))
	}

	if v.Mode == session.ConfirmExit {
		b.WriteString("\n" + th.Warning.Render("Unsaved changes. Save before exit? [y]es / [n]o / [c]ancel") + "\n")
	}
	if v.Status != "" {
		style := th.Muted
		if strings.HasPrefix(v.Status, "save failed") || strings.HasPrefix(v.Status, "error") {
			style = th.Error
		}
		b.WriteString("\n" + style.Render(v.Status) + "\n")
	}

	b.WriteString("\n")
	if v.Mode == session.Editing {
		b.WriteString(h.ShortHelpView(keys.EditorHelp()))
	} else {
		h.ShowAll = v.ShowHelp
		b.WriteString(h.View(keys))
	}
	return b.String()
}

func renderSearch(v session.View, th Theme) string {
	var b strings.Builder
	prompt := th.Muted.Render("search: ")
	cursor := ""
	if v.SearchFocused {
		prompt = th.Cursor.Render("search: ")
		cursor = th.Cursor.Render("_")
	}
	b.WriteString(prompt + v.Query + cursor + "\n\n")

	if len(v.Results) == 0 {
		b.WriteString(th.Muted.Render("No matching tasks.") + "\n")
		return b.String()
	}
	for i, r := range v.Results {
		score := ""
		if v.Scored {
			score = fmt.Sprintf("  [%d]", r.Score)
		}
		switch {
		case i == v.Selected && !v.SearchFocused:
			b.WriteString(th.Cursor.Render("> ") + th.Selected.Render(plainLine(r.Task)+score))
		case i == v.Selected:
			b.WriteString(th.Muted.Render("> ") + taskLine(r.Task, th) + th.Muted.Render(score))
		default:
			b.WriteString("  " + taskLine(r.Task, th) + th.Muted.Render(score))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func idTitle(t task.Task) string {
	return fmt.Sprintf("#%-3d %s", t.ID, t.Title)
}

func plainLine(t task.Task) string {
	parts := []string{idTitle(t), t.Priority.String(), t.Status.Label()}
	if t.Category != "" {
		parts = append(parts, "@"+t.Category)
	}
	for _, tag := range t.Tags {
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, "  ")
}

// taskLine is the styled form of plainLine.
func taskLine(t task.Task, th Theme) string {
	parts := []string{
		th.Text.Render(idTitle(t)),
		th.Priority(t.Priority).Render(t.Priority.String()),
		th.Status(t.Status).Render(t.Status.Label()),
	}
	if t.Category != "" {
		parts = append(parts, th.Muted.Render("@"+t.Category))
	}
	for _, tag := range t.Tags {
		parts = append(parts, th.Muted.Render("#"+tag))
	}
	return strings.Join(parts, "  ")
}

func renderEditor(ev session.EditorView, th Theme) string {
	var b strings.Builder
	title := "Edit task #" + fmt.Sprint(ev.TaskID)
	if ev.New {
		title = "New task"
	}
	b.WriteString(th.Header.Render(title) + "\n\n")
	for _, f := range ev.Fields {
		prefix := "  "
		label := th.Muted.Render(fmt.Sprintf("%-9s", f.Field.String()))
		if f.Focused {
			prefix = th.Cursor.Render("> ")
			label = th.Header.Render(fmt.Sprintf("%-9s", f.Field.String()))
		}
		value := f.Value
		switch {
		case f.Field.IsEnum():
			value = "< " + value + " >"
		case value == "":
			value = th.Muted.Render(empty)
		case f.Field == session.FieldNotes:
			value = strings.ReplaceAll(value, "\n", "\n"+strings.Repeat(" ", 12))
		}
		if f.Focused && !f.Field.IsEnum() {
			value += th.Cursor.Render("_")
		}
		b.WriteString(prefix + label + " " + value + "\n")
		if f.Error != "" {
			b.WriteString(strings.Repeat(" ", 12) + th.Error.Render(f.Error) + "\n")
		}
	}
	return b.String()
}

// RenderOverview draws the priority set, the discovery set and totals.
func RenderOverview(ov query.Overview, th Theme) string {
	var b strings.Builder
	b.WriteString(th.Header.Render("Priority") + "\n")
	if len(ov.Priority) == 0 {
		b.WriteString("  " + th.Muted.Render("Nothing to do.") + "\n")
	}
	for _, t := range ov.Priority {
		b.WriteString("  " + taskLine(t, th) + "\n")
	}
	if len(ov.Discovery) > 0 {
		b.WriteString("\n" + th.Header.Render("Discover") + "\n")
		for _, t := range ov.Discovery {
			b.WriteString("  " + taskLine(t, th) + "\n")
		}
	}
	b.WriteString("\n" + th.Muted.Render(fmt.Sprintf("%d active, %d in progress, %d done", ov.Active, ov.InProgress, ov.Done)) + "\n")
	return b.String()
}

// RenderTable draws tasks as a bordered table.
func RenderTable(tasks []task.Task, th Theme) string {
	if len(tasks) == 0 {
		return th.Muted.Render("No tasks.") + "\n"
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			fmt.Sprint(t.ID),
			t.Priority.String(),
			t.Status.Label(),
			t.Title,
			t.Category,
			strings.Join(t.Tags, ", "),
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(th.Border).
		Headers("ID", "P", "Status", "Title", "Category", "Tags").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(th.Header)
			}
			if row < 0 || row >= len(tasks) {
				return base
			}
			t := tasks[row]
			switch col {
			case 1:
				return base.Inherit(th.Priority(t.Priority))
			case 2:
				return base.Inherit(th.Status(t.Status))
			case 4, 5:
				return base.Inherit(th.Muted)
			}
			return base.Inherit(th.Text)
		})
	return tbl.Render() + "\n"
}

// RenderDetail draws every field of one task. Times are shown relative
// to now.
func RenderDetail(t task.Task, th Theme, now time.Time) string {
	var b strings.Builder
	b.WriteString(th.Title.Render(fmt.Sprintf("#%d %s", t.ID, t.Title)) + "\n\n")

	row := func(label, value string) {
		if value == "" {
			value = th.Muted.Render(empty)
		}
		b.WriteString(th.Muted.Render(fmt.Sprintf("%-10s", label)) + " " + value + "\n")
	}
	row("Priority", th.Priority(t.Priority).Render(t.Priority.Label()))
	row("Status", th.Status(t.Status).Render(t.Status.Label()))
	row("Category", t.Category)
	row("Project", t.Project)
	row("Tags", strings.Join(t.Tags, ", "))
	row("Created", when(t.CreatedAt, now))
	if t.FinishedAt != nil {
		row("Finished", when(*t.FinishedAt, now))
	}
	if t.Notes != "" {
		b.WriteString("\n" + th.Header.Render("Notes") + "\n" + th.Text.Render(t.Notes) + "\n")
	}
	return b.String()
}

func when(t, now time.Time) string {
	return t.Format("2006-01-02 15:04") + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

// RenderStats draws task counts by status, priority and category.
func RenderStats(s task.Stats, th Theme) string {
	var b strings.Builder
	b.WriteString(th.Title.Render(fmt.Sprintf("%d tasks", s.Total)) + "\n\n")

	b.WriteString(th.Header.Render("By status") + "\n")
	for _, st := range task.Statuses() {
		b.WriteString(fmt.Sprintf("  %-12s %d\n", st.Label(), s.ByStatus[st]))
	}
	b.WriteString("\n" + th.Header.Render("By priority") + "\n")
	for _, p := range task.Priorities() {
		b.WriteString(fmt.Sprintf("  %-12s %d\n", p.String(), s.ByPriority[p]))
	}
	if len(s.ByCategory) > 0 {
		b.WriteString("\n" + th.Header.Render("By category") + "\n")
		for _, c := range slices.Sorted(maps.Keys(s.ByCategory)) {
			b.WriteString(fmt.Sprintf("  %-12s %d\n", c, s.ByCategory[c]))
		}
	}
	return b.String()
}
