package session

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"todo/internal/task"
)

// Saver persists the whole list.
type Saver interface {
	Save(*task.List) error
}

type DriverOptions struct {
	// Autosave flushes after every applied mutation.
	Autosave bool
	Logger   *slog.Logger
	Now      func() time.Time
}

// Driver owns the task list for one session. It applies the session's
// commands to the list, saves, and feeds the new snapshot back.
type Driver struct {
	session  *Session
	list     *task.List
	store    Saver
	autosave bool
	logger   *slog.Logger
	now      func() time.Time
}

func NewDriver(s *Session, list *task.List, store Saver, opts DriverOptions) *Driver {
	d := &Driver{
		session:  s,
		list:     list,
		store:    store,
		autosave: opts.Autosave,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Driver) Session() *Session { return d.session }
func (d *Driver) List() *task.List  { return d.list }

// Dispatch feeds one event to the session and applies what it returns.
func (d *Driver) Dispatch(ev Event) {
	d.Apply(d.session.Handle(ev))
}

// Apply runs cmds in order. A failed save stops the batch so that a
// following Close is not honoured while changes are unsaved.
func (d *Driver) Apply(cmds []Command) {
	for _, c := range cmds {
		var (
			err   error
			focus int
		)
		switch c := c.(type) {
		case SetPriority:
			focus = c.ID
			err = d.list.Mutate(c.ID, func(t *task.Task) { t.Priority = c.Priority })
		case SetStatus:
			if c.Status != task.Archived {
				focus = c.ID
			}
			now := d.now()
			err = d.list.Mutate(c.ID, func(t *task.Task) { t.SetStatus(c.Status, now) })
		case Upsert:
			var stored task.Task
			stored, err = d.list.Upsert(c.Task)
			focus = stored.ID
		case Save:
			if d.Save() {
				d.session.Notify("saved")
			} else {
				return
			}
			continue
		case Close:
			d.logger.Info("session closed", "dirty", d.session.Dirty())
			continue
		}

		if err != nil {
			d.logger.Warn("command failed", "command", c, "error", err)
			if errors.Is(err, task.ErrNotFound) {
				d.session.Notify(err.Error())
			} else {
				d.session.Notify("error: " + err.Error())
			}
			continue
		}
		d.session.MarkDirty()
		d.session.Refresh(d.list.All(), focus)
		if d.autosave && !d.Save() {
			return
		}
	}
}

// Save flushes the list. Failure keeps the session dirty.
func (d *Driver) Save() bool {
	if err := d.store.Save(d.list); err != nil {
		d.logger.Error("save failed", "error", err)
		d.session.SaveFailed(err)
		return false
	}
	d.logger.Debug("saved", "tasks", d.list.Len())
	d.session.MarkSaved()
	return true
}

// EventSource yields key events one at a time. io.EOF ends the input.
type EventSource interface {
	Next() (Event, error)
}

// RenderSink draws a view.
type RenderSink interface {
	Render(View) error
}

type EventSourceFunc func() (Event, error)

func (f EventSourceFunc) Next() (Event, error) { return f() }

type RenderSinkFunc func(View) error

func (f RenderSinkFunc) Render(v View) error { return f(v) }

// Run renders the initial view, then dispatches events and renders after
// each one until the session closes or the source ends.
func Run(d *Driver, src EventSource, sink RenderSink) error {
	if err := sink.Render(d.session.View()); err != nil {
		return err
	}
	for d.session.Mode() != Closed {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		d.Dispatch(ev)
		if err := sink.Render(d.session.View()); err != nil {
			return err
		}
	}
	return nil
}
