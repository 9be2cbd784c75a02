package session

import (
	"fmt"
	"slices"

	"todo/internal/config"
)

type Action int

const (
	ActQuit Action = iota
	ActConfirm
	ActCancel
	ActAdd
	ActArchive
	ActDone
	ActPriorityUp
	ActPriorityDown
	ActSave
	ActFocusSearch
	ActHelp
	ActNextField
	ActPrevField
)

// Interrupt closes the session from any mode and is not rebindable.
var Interrupt = Ctrl('c')

// Keymap resolves events to actions. One event may serve several
// actions; each mode asks only about the actions it understands.
type Keymap struct {
	bindings map[Action][]Event
	names    map[Action][]string
}

// NewKeymap parses the configured key names.
func NewKeymap(k config.Keymap) (Keymap, error) {
	km := Keymap{
		bindings: map[Action][]Event{},
		names:    map[Action][]string{},
	}
	table := []struct {
		action Action
		name   string
		keys   []string
	}{
		{ActQuit, "quit", k.Quit},
		{ActConfirm, "confirm", k.Confirm},
		{ActCancel, "cancel", k.Cancel},
		{ActAdd, "add", k.Add},
		{ActArchive, "archive", k.Archive},
		{ActDone, "done", k.Done},
		{ActPriorityUp, "priority_up", k.PriorityUp},
		{ActPriorityDown, "priority_down", k.PriorityDown},
		{ActSave, "save", k.Save},
		{ActFocusSearch, "focus_search", k.FocusSearch},
		{ActHelp, "help", k.Help},
		{ActNextField, "next_field", k.NextField},
		{ActPrevField, "prev_field", k.PrevField},
	}
	for _, row := range table {
		for _, name := range row.keys {
			ev, err := ParseKey(name)
			if err != nil {
				return Keymap{}, fmt.Errorf("keys.%s: %w", row.name, err)
			}
			if ev == Interrupt {
				return Keymap{}, fmt.Errorf("keys.%s: %s is reserved", row.name, ev)
			}
			km.bindings[row.action] = append(km.bindings[row.action], ev)
			km.names[row.action] = append(km.names[row.action], ev.String())
		}
	}
	return km, nil
}

// DefaultKeymap is the key map of config.Default.
func DefaultKeymap() Keymap {
	km, err := NewKeymap(config.Default().Keys)
	if err != nil {
		panic(err)
	}
	return km
}

func (k Keymap) Is(a Action, ev Event) bool {
	return slices.Contains(k.bindings[a], ev)
}

// Keys lists the key names bound to a, for help text.
func (k Keymap) Keys(a Action) []string {
	return slices.Clone(k.names[a])
}
