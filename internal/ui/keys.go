package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/session"
)

// KeyMap mirrors the session key map as bubbles bindings for the help
// line. Matching itself happens in the session.
type KeyMap struct {
	Search   key.Binding
	Navigate key.Binding
	Open     key.Binding
	Add      key.Binding
	Raise    key.Binding
	Lower    key.Binding
	Done     key.Binding
	Archive  key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding

	NextField key.Binding
	PrevField key.Binding
	Cycle     key.Binding
	Finish    key.Binding
	Cancel    key.Binding

	Interrupt key.Binding
}

func binding(keys []string, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(keys, "/"), desc),
	)
}

func NewKeyMap(km session.Keymap) KeyMap {
	return KeyMap{
		Search:   binding(km.Keys(session.ActFocusSearch), "search"),
		Navigate: binding([]string{"up", "down"}, "move"),
		Open:     binding(km.Keys(session.ActConfirm), "edit"),
		Add:      binding(km.Keys(session.ActAdd), "new"),
		Raise:    binding(km.Keys(session.ActPriorityUp), "raise"),
		Lower:    binding(km.Keys(session.ActPriorityDown), "lower"),
		Done:     binding(km.Keys(session.ActDone), "done"),
		Archive:  binding(km.Keys(session.ActArchive), "archive"),
		Save:     binding(km.Keys(session.ActSave), "save"),
		Help:     binding(km.Keys(session.ActHelp), "help"),
		Quit:     binding(km.Keys(session.ActQuit), "quit"),

		NextField: binding(km.Keys(session.ActNextField), "next field"),
		PrevField: binding(km.Keys(session.ActPrevField), "prev field"),
		Cycle:     binding([]string{"left", "right"}, "cycle"),
		Finish:    binding(km.Keys(session.ActSave), "finish"),
		Cancel:    binding(km.Keys(session.ActCancel), "cancel"),

		Interrupt: binding([]string{session.Interrupt.String()}, "force quit"),
	}
}

// ShortHelp and FullHelp satisfy help.KeyMap for browsing.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Add, k.Done, k.Archive, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Navigate, k.Open, k.Add},
		{k.Raise, k.Lower, k.Done, k.Archive},
		{k.Save, k.Help, k.Quit, k.Interrupt},
	}
}

// EditorHelp lists the bindings active while editing.
func (k KeyMap) EditorHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Cycle, k.Finish, k.Archive, k.Cancel}
}

// Events translates a terminal key message. Pasted text arrives as one
// KeyRunes message and becomes one event per rune; keys the session has
// no name for are dropped.
func Events(msg tea.KeyMsg) []session.Event {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		out := make([]session.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			out = append(out, session.Rune(r))
		}
		return out
	case tea.KeySpace:
		return []session.Event{session.Rune(' ')}
	}
	ev, err := session.ParseKey(msg.String())
	if err != nil {
		return nil
	}
	return []session.Event{ev}
}
