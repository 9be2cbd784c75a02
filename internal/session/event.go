package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyCtrl
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyDelete
	KeyTab
	KeyBackTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyF1
)

var keyNames = map[KeyKind]string{
	KeyEnter:     "enter",
	KeyEsc:       "esc",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyTab:       "tab",
	KeyBackTab:   "shift+tab",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyF1:        "f1",
}

// Event is one abstract key press. Rune is set for KeyRune and KeyCtrl.
type Event struct {
	Kind KeyKind
	Rune rune
}

func Rune(r rune) Event   { return Event{Kind: KeyRune, Rune: r} }
func Ctrl(r rune) Event   { return Event{Kind: KeyCtrl, Rune: r} }
func Key(k KeyKind) Event { return Event{Kind: k} }

// Runes returns one KeyRune event per character of s.
func Runes(s string) []Event {
	out := make([]Event, 0, len(s))
	for _, r := range s {
		out = append(out, Rune(r))
	}
	return out
}

func (e Event) String() string {
	switch e.Kind {
	case KeyRune:
		if e.Rune == ' ' {
			return "space"
		}
		return string(e.Rune)
	case KeyCtrl:
		return "ctrl+" + string(e.Rune)
	}
	if name, ok := keyNames[e.Kind]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(e.Kind))
}

// ParseKey reads the names used in the [keys] config section and produced
// by the terminal adapter: "enter", "ctrl+r", "shift+tab", "+", "space".
func ParseKey(s string) (Event, error) {
	if s == " " {
		return Rune(' '), nil
	}
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return Event{}, fmt.Errorf("empty key name")
	case "space":
		return Rune(' '), nil
	case "escape":
		return Key(KeyEsc), nil
	case "return":
		return Key(KeyEnter), nil
	}
	for kind, n := range keyNames {
		if n == name {
			return Key(kind), nil
		}
	}
	if rest, ok := strings.CutPrefix(name, "ctrl+"); ok && utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return Ctrl(r), nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return Rune(r), nil
	}
	return Event{}, fmt.Errorf("unknown key %q", s)
}
