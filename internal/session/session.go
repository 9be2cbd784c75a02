// Package session is the interactive core: a key-driven state machine over
// a ranked view of the task list. Store changes leave the session as
// Commands; a Driver applies them and feeds the result back.
package session

import (
	"fmt"
	"slices"
	"time"

	"todo/internal/query"
	"todo/internal/task"
)

type Session struct {
	keys Keymap
	now  func() time.Time

	mode          Mode
	raw           string
	tasks         []task.Task
	results       []query.Match
	selected      int
	searchFocused bool

	editor *Editor
	// closeAfterEdit ends the session when the editor finishes or cancels.
	closeAfterEdit bool

	dirty  bool
	status string
	help   bool
}

type Option func(*Session)

// WithQuery pre-fills the search input.
func WithQuery(raw string) Option {
	return func(s *Session) { s.raw = raw }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New starts a session in Browsing over a snapshot of tasks.
func New(tasks []task.Task, keys Keymap, opts ...Option) *Session {
	s := &Session{
		keys:          keys,
		now:           time.Now,
		mode:          Browsing,
		searchFocused: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = tasks
	s.rerank()
	return s
}

func (s *Session) Mode() Mode      { return s.mode }
func (s *Session) Dirty() bool     { return s.dirty }
func (s *Session) Query() string   { return s.raw }
func (s *Session) Editor() *Editor { return s.editor }

// Selected returns the task under the cursor.
func (s *Session) Selected() (task.Task, bool) {
	if len(s.results) == 0 {
		return task.Task{}, false
	}
	return s.results[s.selected].Task, true
}

// StartNew opens the editor on a blank task. The caller assigns the id.
func (s *Session) StartNew(t task.Task) {
	s.editor = NewEditor(t, true)
	s.mode = Editing
}

// StartEdit opens the editor on an existing task.
func (s *Session) StartEdit(id int) error {
	i := slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("task #%d: %w", id, task.ErrNotFound)
	}
	s.editor = NewEditor(s.tasks[i], false)
	s.mode = Editing
	return nil
}

// CloseAfterEdit makes the session close once the current editor exits.
func (s *Session) CloseAfterEdit() {
	s.closeAfterEdit = true
}

// Refresh replaces the task snapshot after the store changed, re-ranks,
// and reselects focusID when it is still visible. Otherwise the previous
// index is clamped.
func (s *Session) Refresh(tasks []task.Task, focusID int) {
	s.tasks = tasks
	prev := s.selected
	s.rerank()
	s.selected = prev
	if focusID != 0 {
		if i := slices.IndexFunc(s.results, func(m query.Match) bool { return m.Task.ID == focusID }); i >= 0 {
			s.selected = i
		}
	}
	s.clamp()
}

func (s *Session) MarkDirty() { s.dirty = true }

// MarkSaved clears the dirty flag after a successful flush.
func (s *Session) MarkSaved() { s.dirty = false }

// SaveFailed keeps the session dirty and reports err. A save-and-exit that
// failed returns to the exit prompt so the user can retry or discard.
func (s *Session) SaveFailed(err error) {
	s.dirty = true
	s.status = "save failed: " + err.Error()
	if s.mode == Closed {
		s.mode = ConfirmExit
	}
}

// Notify sets the status line.
func (s *Session) Notify(msg string) { s.status = msg }

func (s *Session) rerank() {
	s.results = query.RankString(s.tasks, s.raw)
	s.clamp()
}

func (s *Session) clamp() {
	s.selected = min(max(s.selected, 0), max(len(s.results)-1, 0))
}

// Handle applies one key press and returns the store commands it implies.
func (s *Session) Handle(ev Event) []Command {
	if s.mode == Closed {
		return nil
	}
	if ev == Interrupt {
		return s.interrupt()
	}
	switch s.mode {
	case Browsing:
		s.status = ""
		return s.handleBrowsing(ev)
	case Editing:
		return s.handleEditing(ev)
	case ConfirmExit:
		return s.handleConfirmExit(ev)
	}
	return nil
}

func (s *Session) interrupt() []Command {
	var cmds []Command
	if s.mode == Editing {
		if t, err := s.editor.Finish(s.now()); err == nil {
			cmds = append(cmds, Upsert{Task: t})
		}
		s.editor = nil
	}
	s.mode = Closed
	return append(cmds, Close{})
}

func (s *Session) handleBrowsing(ev Event) []Command {
	switch {
	case s.keys.Is(ActHelp, ev):
		s.help = !s.help
		return nil
	case s.keys.Is(ActAdd, ev):
		s.StartNew(task.New("", s.now()))
		return nil
	case s.keys.Is(ActSave, ev):
		return []Command{Save{}}
	case s.keys.Is(ActQuit, ev):
		return s.exit()
	case s.keys.Is(ActFocusSearch, ev):
		s.searchFocused = true
		return nil
	case s.keys.Is(ActArchive, ev):
		if cur, ok := s.Selected(); ok {
			s.status = fmt.Sprintf("Archived #%d", cur.ID)
			return []Command{SetStatus{ID: cur.ID, Status: task.Archived}}
		}
		return nil
	case s.keys.Is(ActDone, ev):
		if cur, ok := s.Selected(); ok && cur.Status != task.Done {
			s.status = fmt.Sprintf("Done #%d", cur.ID)
			return []Command{SetStatus{ID: cur.ID, Status: task.Done}}
		}
		return nil
	}
	if s.searchFocused {
		return s.handleSearch(ev)
	}
	return s.handleResults(ev)
}

func (s *Session) exit() []Command {
	if s.dirty {
		s.mode = ConfirmExit
		return nil
	}
	s.mode = Closed
	return []Command{Close{}}
}

func (s *Session) handleSearch(ev Event) []Command {
	switch ev.Kind {
	case KeyRune:
		s.setQuery(s.raw + string(ev.Rune))
	case KeyBackspace:
		s.setQuery(dropLastRune(s.raw))
	case KeyDown, KeyEnter:
		if len(s.results) > 0 {
			s.searchFocused = false
			s.selected = 0
		}
	}
	return nil
}

func (s *Session) setQuery(raw string) {
	s.raw = raw
	s.selected = 0
	s.rerank()
}

func (s *Session) handleResults(ev Event) []Command {
	cur, ok := s.Selected()
	switch {
	case ev.Kind == KeyUp:
		if s.selected == 0 {
			s.searchFocused = true
		} else {
			s.selected--
		}
	case ev.Kind == KeyDown:
		s.selected++
		s.clamp()
	case ev.Kind == KeyHome:
		s.selected = 0
	case ev.Kind == KeyEnd:
		s.selected = len(s.results) - 1
		s.clamp()
	case s.keys.Is(ActConfirm, ev):
		if ok {
			s.editor = NewEditor(cur, false)
			s.mode = Editing
		}
	case s.keys.Is(ActPriorityUp, ev):
		if ok {
			return s.setPriority(cur, cur.Priority.Raise())
		}
	case s.keys.Is(ActPriorityDown, ev):
		if ok {
			return s.setPriority(cur, cur.Priority.Lower())
		}
	case ev.Kind == KeyRune || ev.Kind == KeyBackspace:
		s.searchFocused = true
		return s.handleSearch(ev)
	}
	return nil
}

func (s *Session) setPriority(t task.Task, p task.Priority) []Command {
	if p == t.Priority {
		return nil
	}
	s.status = fmt.Sprintf("#%d is now %s", t.ID, p)
	return []Command{SetPriority{ID: t.ID, Priority: p}}
}

func (s *Session) handleEditing(ev Event) []Command {
	res := s.editor.HandleKey(ev, s.keys, s.now())
	var cmds []Command
	switch res.Outcome {
	case EditorPending:
		return nil
	case EditorFinished:
		cmds = append(cmds, Upsert{Task: res.Task})
	}
	s.editor = nil
	s.mode = Browsing
	if s.closeAfterEdit {
		s.mode = Closed
		cmds = append(cmds, Close{})
	}
	return cmds
}

func (s *Session) handleConfirmExit(ev Event) []Command {
	switch {
	case ev == Rune('y') || ev == Rune('Y') || ev == Rune('s') || s.keys.Is(ActSave, ev) || s.keys.Is(ActConfirm, ev):
		s.mode = Closed
		return []Command{Save{}, Close{}}
	case ev == Rune('n') || ev == Rune('N') || ev == Rune('d'):
		s.dirty = false
		s.mode = Closed
		return []Command{Close{}}
	case s.keys.Is(ActCancel, ev) || ev == Rune('c'):
		s.mode = Browsing
	}
	return nil
}

// View describes the current state for rendering.
func (s *Session) View() View {
	v := View{
		Mode:          s.mode,
		Query:         s.raw,
		SearchFocused: s.searchFocused,
		Selected:      -1,
		Status:        s.status,
		Dirty:         s.dirty,
		ShowHelp:      s.help,
		Scored:        !query.Parse(s.raw).Empty(),
	}
	for _, m := range s.results {
		v.Results = append(v.Results, Row{Task: m.Task, Score: m.Score})
	}
	if len(s.results) > 0 {
		v.Selected = s.selected
	}
	if s.editor != nil {
		v.Editor = editorView(s.editor)
	}
	return v
}
