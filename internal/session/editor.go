package session

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"todo/internal/task"
)

type Field int

const (
	FieldTitle Field = iota
	FieldPriority
	FieldStatus
	FieldCategory
	FieldProject
	FieldTags
	FieldNotes
)

// Fields is the focus order of the editor.
var Fields = []Field{FieldTitle, FieldPriority, FieldStatus, FieldCategory, FieldProject, FieldTags, FieldNotes}

var fieldLabels = map[Field]string{
	FieldTitle:    "Title",
	FieldPriority: "Priority",
	FieldStatus:   "Status",
	FieldCategory: "Category",
	FieldProject:  "Project",
	FieldTags:     "Tags",
	FieldNotes:    "Notes",
}

func (f Field) String() string {
	return fieldLabels[f]
}

func (f Field) IsEnum() bool {
	return f == FieldPriority || f == FieldStatus
}

var ErrNotText = errors.New("field is not a text field")

type EditorOutcome int

const (
	EditorPending EditorOutcome = iota
	EditorFinished
	EditorCancelled
)

// EditorResult is what one key press did to the editor. Task is set only
// when Outcome is EditorFinished.
type EditorResult struct {
	Outcome EditorOutcome
	Task    task.Task
}

// Editor edits one task field by field. Nothing is written anywhere until
// Finish hands back the assembled task.
type Editor struct {
	base     task.Task
	isNew    bool
	focus    Field
	text     map[Field]string
	priority task.Priority
	status   task.Status
	errs     map[Field]string
}

func NewEditor(t task.Task, isNew bool) *Editor {
	return &Editor{
		base:  t.Clone(),
		isNew: isNew,
		text: map[Field]string{
			FieldTitle:    t.Title,
			FieldCategory: t.Category,
			FieldProject:  t.Project,
			FieldTags:     strings.Join(t.Tags, ", "),
			FieldNotes:    t.Notes,
		},
		priority: t.Priority,
		status:   t.Status,
		errs:     map[Field]string{},
	}
}

func (e *Editor) TaskID() int             { return e.base.ID }
func (e *Editor) IsNew() bool             { return e.isNew }
func (e *Editor) Focus() Field            { return e.focus }
func (e *Editor) Priority() task.Priority { return e.priority }
func (e *Editor) Status() task.Status     { return e.status }

// Text returns the current value of a field as displayed.
func (e *Editor) Text(f Field) string {
	switch f {
	case FieldPriority:
		return e.priority.Label()
	case FieldStatus:
		return e.status.Label()
	}
	return e.text[f]
}

// Error returns the pending validation message of a field, if any.
func (e *Editor) Error(f Field) string {
	return e.errs[f]
}

// AdvanceFocus moves the focus by dir fields, wrapping around.
func (e *Editor) AdvanceFocus(dir int) {
	n := len(Fields)
	e.focus = Fields[((int(e.focus)+dir)%n+n)%n]
}

// ApplyText replaces the value of a text field. Invalid input leaves the
// previous value in place and records a field error, unless it is shorter
// than the previous value. An empty title is accepted here and rejected by
// Finish.
func (e *Editor) ApplyText(f Field, text string) error {
	if f.IsEnum() {
		return &task.ValidationError{Field: strings.ToLower(f.String()), Err: ErrNotText}
	}
	if err := validateDraft(f, text); err != nil {
		e.errs[f] = fieldMessage(err)
		if utf8.RuneCountInString(text) < utf8.RuneCountInString(e.text[f]) {
			e.text[f] = text
		}
		return err
	}
	delete(e.errs, f)
	e.text[f] = text
	return nil
}

func validateDraft(f Field, text string) error {
	switch f {
	case FieldTitle:
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return task.ValidateTitle(text)
	case FieldCategory:
		return task.ValidateCategory(text)
	case FieldProject:
		return task.ValidateProject(text)
	case FieldNotes:
		return task.ValidateNotes(text)
	case FieldTags:
		_, err := task.NormalizeTags(text)
		return err
	}
	return nil
}

func fieldMessage(err error) string {
	var ve *task.ValidationError
	if errors.As(err, &ve) {
		return ve.Err.Error()
	}
	return err.Error()
}

// SetEnum sets the priority or status field from its name.
func (e *Editor) SetEnum(f Field, value string) error {
	switch f {
	case FieldPriority:
		p, err := task.ParsePriority(value)
		if err != nil {
			e.errs[f] = err.Error()
			return &task.ValidationError{Field: "priority", Err: err}
		}
		e.priority = p
	case FieldStatus:
		s, err := task.ParseStatus(value)
		if err != nil {
			e.errs[f] = err.Error()
			return &task.ValidationError{Field: "status", Err: err}
		}
		e.status = s
	default:
		return &task.ValidationError{Field: strings.ToLower(f.String()), Err: errors.New("field is not an enum")}
	}
	delete(e.errs, f)
	return nil
}

// CycleEnum steps the focused enum field forward or back, wrapping.
func (e *Editor) CycleEnum(f Field, dir int) {
	switch f {
	case FieldPriority:
		all := task.Priorities()
		e.priority = all[wrap(int(e.priority)+dir, len(all))]
	case FieldStatus:
		all := task.Statuses()
		e.status = all[wrap(int(e.status)+dir, len(all))]
	}
}

func wrap(i, n int) int {
	return (i%n + n) % n
}

// Finish validates every field and assembles the task. On failure the
// focus moves to the first invalid field.
func (e *Editor) Finish(now time.Time) (task.Task, error) {
	checks := []struct {
		field Field
		err   error
	}{
		{FieldTitle, task.ValidateTitle(e.text[FieldTitle])},
		{FieldCategory, task.ValidateCategory(e.text[FieldCategory])},
		{FieldProject, task.ValidateProject(e.text[FieldProject])},
		{FieldTags, nil},
		{FieldNotes, task.ValidateNotes(e.text[FieldNotes])},
	}
	tags, tagErr := task.NormalizeTags(e.text[FieldTags])
	checks[3].err = tagErr

	var errs []error
	first := Field(-1)
	for _, c := range checks {
		if c.err == nil {
			delete(e.errs, c.field)
			continue
		}
		e.errs[c.field] = fieldMessage(c.err)
		errs = append(errs, c.err)
		if first < 0 {
			first = c.field
		}
	}
	if len(errs) > 0 {
		e.focus = first
		return task.Task{}, errors.Join(errs...)
	}

	t := e.base.Clone()
	t.Title = strings.TrimSpace(e.text[FieldTitle])
	t.Priority = e.priority
	t.SetStatus(e.status, now)
	t.Category = strings.TrimSpace(e.text[FieldCategory])
	t.Project = strings.TrimSpace(e.text[FieldProject])
	t.Tags = tags
	t.Notes = strings.TrimSpace(e.text[FieldNotes])
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	return t, nil
}

// QuickArchive sets the status to Archived and finishes.
func (e *Editor) QuickArchive(now time.Time) (task.Task, error) {
	prev := e.status
	e.status = task.Archived
	t, err := e.Finish(now)
	if err != nil {
		e.status = prev
	}
	return t, err
}

// HandleKey applies one key press.
func (e *Editor) HandleKey(ev Event, keys Keymap, now time.Time) EditorResult {
	finish := func(t task.Task, err error) EditorResult {
		if err != nil {
			return EditorResult{Outcome: EditorPending}
		}
		return EditorResult{Outcome: EditorFinished, Task: t}
	}

	switch {
	case keys.Is(ActCancel, ev):
		return EditorResult{Outcome: EditorCancelled}
	case keys.Is(ActSave, ev):
		return finish(e.Finish(now))
	case keys.Is(ActArchive, ev):
		return finish(e.QuickArchive(now))
	case keys.Is(ActNextField, ev):
		e.AdvanceFocus(1)
		return EditorResult{}
	case keys.Is(ActPrevField, ev):
		e.AdvanceFocus(-1)
		return EditorResult{}
	}

	switch ev.Kind {
	case KeyUp:
		e.AdvanceFocus(-1)
	case KeyDown:
		e.AdvanceFocus(1)
	case KeyEnter:
		switch e.focus {
		case FieldTitle:
			return finish(e.Finish(now))
		case FieldNotes:
			_ = e.ApplyText(FieldNotes, e.text[FieldNotes]+"\n")
		default:
			e.AdvanceFocus(1)
		}
	case KeyLeft:
		e.CycleEnum(e.focus, -1)
	case KeyRight:
		e.CycleEnum(e.focus, 1)
	case KeyBackspace:
		if !e.focus.IsEnum() {
			_ = e.ApplyText(e.focus, dropLastRune(e.text[e.focus]))
		}
	case KeyRune:
		if e.focus.IsEnum() {
			if ev.Rune == ' ' {
				e.CycleEnum(e.focus, 1)
			}
			return EditorResult{}
		}
		_ = e.ApplyText(e.focus, e.text[e.focus]+string(ev.Rune))
	}
	return EditorResult{}
}

func dropLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
