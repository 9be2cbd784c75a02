package session

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/config"
	"todo/internal/task"
)

var t0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return t0.Add(time.Hour) }

type memStore struct {
	saves int
	err   error
}

func (m *memStore) Save(*task.List) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	return nil
}

// fixture holds 1 "Fix the login bug" P1, 2 "Write docs" P2, 3 "Plan sprint" P3.
func fixture(t *testing.T) *task.List {
	t.Helper()
	l := task.NewList()
	for i, title := range []string{"Fix the login bug", "Write docs", "Plan sprint"} {
		tk := l.Create(title, t0)
		tk.Priority = task.Priority(i + 1)
		_, err := l.Insert(tk)
		require.NoError(t, err)
	}
	return l
}

func newDriver(l *task.List, store Saver, autosave bool, opts ...Option) *Driver {
	s := New(l.All(), DefaultKeymap(), append([]Option{WithClock(clock)}, opts...)...)
	return NewDriver(s, l, store, DriverOptions{Autosave: autosave, Now: clock})
}

func press(d *Driver, evs ...Event) {
	for _, ev := range evs {
		d.Dispatch(ev)
	}
}

func ids(v View) []int {
	var out []int
	for _, r := range v.Results {
		out = append(out, r.Task.ID)
	}
	return out
}

func selectedID(t *testing.T, d *Driver) int {
	t.Helper()
	cur, ok := d.Session().Selected()
	require.True(t, ok)
	return cur.ID
}

func TestParseKey(t *testing.T) {
	cases := map[string]Event{
		"ctrl+r":    Ctrl('r'),
		"Ctrl+S":    Ctrl('s'),
		"shift+tab": Key(KeyBackTab),
		"Enter":     Key(KeyEnter),
		"escape":    Key(KeyEsc),
		"f1":        Key(KeyF1),
		"+":         Rune('+'),
		"A":         Rune('A'),
		"space":     Rune(' '),
		" ":         Rune(' '),
	}
	for in, want := range cases {
		got, err := ParseKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)

		back, err := ParseKey(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, back, "String output parses back")
	}

	for _, bad := range []string{"", "ctrl+xy", "hyper"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewKeymap(t *testing.T) {
	km := DefaultKeymap()
	assert.True(t, km.Is(ActPriorityUp, Rune('+')))
	assert.True(t, km.Is(ActPriorityUp, Rune('=')))
	assert.True(t, km.Is(ActQuit, Key(KeyEsc)))
	assert.True(t, km.Is(ActCancel, Key(KeyEsc)))
	assert.False(t, km.Is(ActArchive, Ctrl('d')))
	assert.Equal(t, []string{"esc", "ctrl+x"}, km.Keys(ActQuit))

	keys := config.Default().Keys
	keys.Archive = []string{"ctrl+c"}
	_, err := NewKeymap(keys)
	assert.ErrorContains(t, err, "reserved")

	keys = config.Default().Keys
	keys.Done = []string{"hyper"}
	_, err = NewKeymap(keys)
	assert.ErrorContains(t, err, "keys.done")
}

func TestArchiveRemovesAndClamps(t *testing.T) {
	l := fixture(t)
	store := &memStore{}
	d := newDriver(l, store, true)

	press(d, Key(KeyDown), Key(KeyDown), Key(KeyDown))
	v := d.Session().View()
	require.Equal(t, []int{1, 2, 3}, ids(v))
	require.Equal(t, 2, v.Selected)

	press(d, Ctrl('r'))
	v = d.Session().View()
	assert.Equal(t, []int{1, 2}, ids(v))
	assert.Equal(t, 1, v.Selected, "selection clamps to the new last row")
	got, err := l.Get(3)
	require.NoError(t, err)
	assert.Equal(t, task.Archived, got.Status)

	press(d, Ctrl('r'), Ctrl('r'))
	v = d.Session().View()
	assert.Empty(t, v.Results)
	assert.Equal(t, -1, v.Selected, "no selection on an empty list")
	_, ok := d.Session().Selected()
	assert.False(t, ok)

	press(d, Ctrl('r'))
	assert.Equal(t, 3, store.saves, "archive on an empty list is a no-op")
	assert.False(t, d.Session().Dirty())
}

func TestPriorityKeysReselectByID(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, true)

	press(d, Key(KeyDown), Rune('+'))
	got, _ := l.Get(1)
	assert.Equal(t, task.P0, got.Priority)
	press(d, Rune('+'))
	got, _ = l.Get(1)
	assert.Equal(t, task.P0, got.Priority, "saturates at P0")

	press(d, Key(KeyDown), Key(KeyDown), Rune('+'), Rune('='))
	v := d.Session().View()
	assert.Equal(t, []int{1, 3, 2}, ids(v))
	assert.Equal(t, 3, selectedID(t, d), "selection follows the re-ranked task")

	press(d, Rune('-'))
	got, _ = l.Get(3)
	assert.Equal(t, task.P2, got.Priority)
}

func TestSearchFocusTypesPriorityCharacters(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, true)

	press(d, Runes("c++")...)
	assert.Equal(t, "c++", d.Session().Query())
	got, _ := l.Get(1)
	assert.Equal(t, task.P1, got.Priority)
	assert.False(t, d.Session().Dirty())
}

func TestViewScoredOnlyForNonEmptyQuery(t *testing.T) {
	d := newDriver(fixture(t), &memStore{}, true)
	assert.False(t, d.Session().View().Scored)

	press(d, Runes("  ")...)
	v := d.Session().View()
	assert.False(t, v.Scored, "whitespace parses to an empty query")
	assert.Len(t, v.Results, 3)

	press(d, Runes("p2")...)
	assert.True(t, d.Session().View().Scored)
}

func TestTypingFiltersAndNavigation(t *testing.T) {
	d := newDriver(fixture(t), &memStore{}, true)

	press(d, Runes("login #bug")...)
	assert.Empty(t, d.Session().View().Results, "no task carries #bug")

	for range len("#bug") + 1 {
		press(d, Key(KeyBackspace))
	}
	v := d.Session().View()
	assert.Equal(t, "login", v.Query)
	assert.Equal(t, []int{1}, ids(v))
	assert.Equal(t, 3, v.Results[0].Score)

	press(d, Key(KeyBackspace), Key(KeyBackspace), Key(KeyBackspace), Key(KeyBackspace), Key(KeyBackspace))
	press(d, Key(KeyEnter))
	v = d.Session().View()
	assert.False(t, v.SearchFocused)
	assert.Equal(t, 0, v.Selected)

	press(d, Key(KeyDown), Key(KeyDown), Key(KeyDown), Key(KeyDown))
	assert.Equal(t, 2, d.Session().View().Selected, "no wraparound")

	press(d, Key(KeyHome), Key(KeyUp))
	assert.True(t, d.Session().View().SearchFocused, "up on the first row returns to the query")

	press(d, Key(KeyDown), Rune('x'))
	v = d.Session().View()
	assert.True(t, v.SearchFocused, "typing in the results refocuses the query")
	assert.Equal(t, "x", v.Query)
}

func TestExitPaths(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		d := newDriver(fixture(t), &memStore{}, false)
		cmds := d.Session().Handle(Key(KeyEsc))
		assert.Equal(t, []Command{Close{}}, cmds)
		assert.Equal(t, Closed, d.Session().Mode())
		assert.Nil(t, d.Session().Handle(Rune('a')), "closed is terminal")
	})

	dirty := func(t *testing.T) (*Driver, *memStore) {
		store := &memStore{}
		d := newDriver(fixture(t), store, false)
		press(d, Key(KeyDown), Rune('-'), Ctrl('x'))
		require.True(t, d.Session().Dirty())
		require.Equal(t, ConfirmExit, d.Session().Mode())
		return d, store
	}

	t.Run("cancel", func(t *testing.T) {
		d, _ := dirty(t)
		press(d, Key(KeyEsc))
		assert.Equal(t, Browsing, d.Session().Mode())
		assert.True(t, d.Session().Dirty())
	})

	t.Run("discard", func(t *testing.T) {
		d, store := dirty(t)
		cmds := d.Session().Handle(Rune('n'))
		assert.Equal(t, []Command{Close{}}, cmds)
		assert.Equal(t, Closed, d.Session().Mode())
		assert.False(t, d.Session().Dirty())
		assert.Zero(t, store.saves)
	})

	t.Run("save", func(t *testing.T) {
		d, store := dirty(t)
		press(d, Rune('y'))
		assert.Equal(t, Closed, d.Session().Mode())
		assert.False(t, d.Session().Dirty())
		assert.Equal(t, 1, store.saves)
	})

	t.Run("interrupt keeps dirty", func(t *testing.T) {
		d, store := dirty(t)
		press(d, Interrupt)
		assert.Equal(t, Closed, d.Session().Mode())
		assert.True(t, d.Session().Dirty())
		assert.Zero(t, store.saves)
	})
}

func TestSaveFailureStaysDirty(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	d := newDriver(fixture(t), store, true)

	press(d, Key(KeyDown), Rune('-'))
	v := d.Session().View()
	assert.True(t, v.Dirty)
	assert.Equal(t, "save failed: disk full", v.Status)

	press(d, Key(KeyEsc), Rune('y'))
	assert.Equal(t, ConfirmExit, d.Session().Mode(), "failed save-and-exit returns to the prompt")
	assert.True(t, d.Session().Dirty())

	store.err = nil
	press(d, Ctrl('s'))
	assert.Equal(t, Closed, d.Session().Mode())
	assert.False(t, d.Session().Dirty())
	assert.Equal(t, 1, store.saves)
}

func TestManualSave(t *testing.T) {
	store := &memStore{}
	d := newDriver(fixture(t), store, false)

	press(d, Key(KeyDown), Ctrl('d'))
	assert.True(t, d.Session().Dirty())
	got, _ := d.List().Get(1)
	assert.Equal(t, task.Done, got.Status)
	assert.Equal(t, clock(), *got.FinishedAt)
	assert.Equal(t, 1, selectedID(t, d), "done tasks stay visible and selected")

	press(d, Ctrl('s'))
	assert.False(t, d.Session().Dirty())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "saved", d.Session().View().Status)
}

func TestEditExistingTask(t *testing.T) {
	l := fixture(t)
	store := &memStore{}
	d := newDriver(l, store, true)

	press(d, Key(KeyDown), Key(KeyDown), Key(KeyEnter))
	require.Equal(t, Editing, d.Session().Mode())
	v := d.Session().View()
	require.NotNil(t, v.Editor)
	assert.Equal(t, 2, v.Editor.TaskID)
	assert.False(t, v.Editor.New)
	assert.Len(t, v.Editor.Fields, len(Fields))
	assert.True(t, v.Editor.Fields[0].Focused)

	press(d, Runes(" now")...)
	press(d, Key(KeyTab), Key(KeyLeft), Key(KeyLeft))
	press(d, Key(KeyEnter))
	assert.Equal(t, FieldStatus, d.Session().Editor().Focus(), "enter outside the title advances")
	press(d, Ctrl('s'))
	require.Equal(t, Browsing, d.Session().Mode())

	got, err := l.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Write docs now", got.Title)
	assert.Equal(t, task.P0, got.Priority)
	assert.Equal(t, []int{2, 1, 3}, ids(d.Session().View()))
	assert.Equal(t, 2, selectedID(t, d))
	assert.Equal(t, 1, store.saves)
}

func TestAddNewTask(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, true)

	press(d, Ctrl('a'))
	require.Equal(t, Editing, d.Session().Mode())
	assert.True(t, d.Session().View().Editor.New)

	press(d, Ctrl('s'))
	v := d.Session().View()
	require.Equal(t, Editing, v.Mode, "empty title blocks finishing")
	assert.Equal(t, "cannot be empty", v.Editor.Fields[0].Error)

	press(d, Runes("Buy milk")...)
	press(d, Ctrl('s'))
	require.Equal(t, Browsing, d.Session().Mode())
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, 4, selectedID(t, d))
	got, _ := l.Get(4)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, clock(), got.CreatedAt)
	assert.Equal(t, 5, l.NextID)
}

func TestSessionQuickArchiveReturnsToBrowsing(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, true)

	press(d, Key(KeyDown), Key(KeyEnter), Ctrl('r'))
	require.Equal(t, Browsing, d.Session().Mode())
	got, _ := l.Get(1)
	assert.Equal(t, task.Archived, got.Status)
	assert.Equal(t, []int{2, 3}, ids(d.Session().View()))
	assert.Equal(t, 2, selectedID(t, d))
}

func TestEditorCancelKeepsQueryAndSelection(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, true, WithQuery("docs"))

	press(d, Key(KeyDown), Key(KeyEnter))
	press(d, Runes("xyz")...)
	press(d, Key(KeyEsc))

	assert.Equal(t, Browsing, d.Session().Mode())
	assert.Equal(t, "docs", d.Session().Query())
	assert.Equal(t, 2, selectedID(t, d))
	got, _ := l.Get(2)
	assert.Equal(t, "Write docs", got.Title)
	assert.False(t, d.Session().Dirty())
}

func TestNotFoundBecomesStatus(t *testing.T) {
	d := newDriver(fixture(t), &memStore{}, true)
	d.Apply([]Command{SetStatus{ID: 99, Status: task.Done}})

	v := d.Session().View()
	assert.Contains(t, v.Status, "not found")
	assert.False(t, v.Dirty)
	assert.Equal(t, Browsing, v.Mode)
}

func TestInterruptFlushesEditor(t *testing.T) {
	l := fixture(t)
	d := newDriver(l, &memStore{}, false)

	press(d, Key(KeyDown), Key(KeyEnter), Rune('!'), Interrupt)
	assert.Equal(t, Closed, d.Session().Mode())
	assert.True(t, d.Session().Dirty())
	got, _ := l.Get(1)
	assert.Equal(t, "Fix the login bug!", got.Title)

	l = fixture(t)
	d = newDriver(l, &memStore{}, false)
	cmds := d.Session().Handle(Ctrl('a'))
	assert.Empty(t, cmds)
	cmds = d.Session().Handle(Interrupt)
	assert.Equal(t, []Command{Close{}}, cmds, "an invalid draft is dropped")
}

func TestCloseAfterEdit(t *testing.T) {
	l := fixture(t)
	store := &memStore{}
	d := newDriver(l, store, true)

	require.ErrorIs(t, d.Session().StartEdit(99), task.ErrNotFound)
	require.NoError(t, d.Session().StartEdit(3))
	d.Session().CloseAfterEdit()

	press(d, Runes(" now")...)
	press(d, Key(KeyEnter))
	assert.Equal(t, Closed, d.Session().Mode())
	assert.False(t, d.Session().Dirty())
	assert.Equal(t, 1, store.saves)
	got, _ := l.Get(3)
	assert.Equal(t, "Plan sprint now", got.Title)
}

func TestHelpToggle(t *testing.T) {
	d := newDriver(fixture(t), &memStore{}, true)
	press(d, Key(KeyF1))
	assert.True(t, d.Session().View().ShowHelp)
	press(d, Key(KeyF1))
	assert.False(t, d.Session().View().ShowHelp)
}

type script struct {
	events []Event
}

func (s *script) Next() (Event, error) {
	if len(s.events) == 0 {
		return Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func TestRunLoop(t *testing.T) {
	d := newDriver(fixture(t), &memStore{}, true)
	src := &script{events: append(Runes("login"), Key(KeyEsc), Rune('z'))}

	var views []View
	err := Run(d, src, RenderSinkFunc(func(v View) error {
		views = append(views, v)
		return nil
	}))
	require.NoError(t, err)
	require.Len(t, views, 7, "initial render plus one per event up to close")
	assert.Equal(t, []int{1, 2, 3}, ids(views[0]))
	assert.Equal(t, []int{1}, ids(views[5]))
	assert.Equal(t, Closed, views[6].Mode)
	assert.Len(t, src.events, 1, "events after close are not read")

	d = newDriver(fixture(t), &memStore{}, true)
	err = Run(d, &script{events: Runes("ab")}, RenderSinkFunc(func(View) error { return nil }))
	assert.NoError(t, err, "end of input is not an error")
	assert.Equal(t, "ab", d.Session().Query())

	boom := errors.New("boom")
	err = Run(d, EventSourceFunc(func() (Event, error) { return Event{}, boom }), RenderSinkFunc(func(View) error { return nil }))
	assert.ErrorIs(t, err, boom)
}
