package task

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrDuplicate = errors.New("task id already exists")
)

// List is the persisted aggregate: the ordered tasks plus the id counter.
// NextID only grows, so ids of deleted tasks are never handed out again.
type List struct {
	NextID int    `yaml:"next_id"`
	Todos  []Task `yaml:"todos"`
}

func NewList() *List {
	return &List{NextID: 1}
}

func notFound(id int) error {
	return fmt.Errorf("task #%d: %w", id, ErrNotFound)
}

func (l *List) index(id int) int {
	return slices.IndexFunc(l.Todos, func(t Task) bool { return t.ID == id })
}

// All returns a snapshot of every task in stored order.
func (l *List) All() []Task {
	out := make([]Task, len(l.Todos))
	for i, t := range l.Todos {
		out[i] = t.Clone()
	}
	return out
}

func (l *List) Len() int {
	return len(l.Todos)
}

func (l *List) Get(id int) (Task, error) {
	i := l.index(id)
	if i < 0 {
		return Task{}, notFound(id)
	}
	return l.Todos[i].Clone(), nil
}

// Create builds a task with the next id. The task is not stored until
// Insert is called.
func (l *List) Create(title string, now time.Time) Task {
	l.normalizeCounter()
	t := New(title, now)
	t.ID = l.NextID
	l.NextID++
	return t
}

// Insert stores t. A zero id is replaced by the next id from the counter.
func (l *List) Insert(t Task) (Task, error) {
	l.normalizeCounter()
	if t.ID == 0 {
		t.ID = l.NextID
	}
	if l.index(t.ID) >= 0 {
		return Task{}, fmt.Errorf("task #%d: %w", t.ID, ErrDuplicate)
	}
	if t.ID >= l.NextID {
		l.NextID = t.ID + 1
	}
	t = t.Clone()
	l.Todos = append(l.Todos, t)
	return t.Clone(), nil
}

// Update replaces the stored task with the same id, keeping its position.
func (l *List) Update(t Task) error {
	i := l.index(t.ID)
	if i < 0 {
		return notFound(t.ID)
	}
	l.Todos[i] = t.Clone()
	return nil
}

// Upsert inserts t when its id is unknown and updates it otherwise.
func (l *List) Upsert(t Task) (Task, error) {
	if t.ID != 0 && l.index(t.ID) >= 0 {
		return t, l.Update(t)
	}
	return l.Insert(t)
}

// Mutate edits the stored task in place.
func (l *List) Mutate(id int, fn func(*Task)) error {
	i := l.index(id)
	if i < 0 {
		return notFound(id)
	}
	fn(&l.Todos[i])
	return nil
}

func (l *List) Delete(id int) error {
	i := l.index(id)
	if i < 0 {
		return notFound(id)
	}
	l.Todos = slices.Delete(l.Todos, i, i+1)
	return nil
}

func (l *List) DeleteByCategory(category string) int {
	n := len(l.Todos)
	l.Todos = slices.DeleteFunc(l.Todos, func(t Task) bool {
		return t.Category != "" && strings.EqualFold(t.Category, category)
	})
	return n - len(l.Todos)
}

func (l *List) DeleteByStatus(s Status) int {
	n := len(l.Todos)
	l.Todos = slices.DeleteFunc(l.Todos, func(t Task) bool { return t.Status == s })
	return n - len(l.Todos)
}

// normalizeCounter keeps NextID above every stored id, which matters for
// hand-edited files.
func (l *List) normalizeCounter() {
	if l.NextID < 1 {
		l.NextID = 1
	}
	for _, t := range l.Todos {
		if t.ID >= l.NextID {
			l.NextID = t.ID + 1
		}
	}
}

// Patch is a partial update as issued by the update command. Nil fields
// are left unchanged; an empty string clears an optional field.
type Patch struct {
	Title    *string
	Status   *Status
	Priority *Priority
	TagEdits string
	Category *string
	Project  *string
	Notes    *string
}

// Apply validates and applies p to the task with the given id.
func (l *List) Apply(id int, p Patch, now time.Time) error {
	t, err := l.Get(id)
	if err != nil {
		return err
	}
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Status != nil {
		t.SetStatus(*p.Status, now)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.TagEdits != "" {
		t.Tags = ApplyTagEdits(t.Tags, p.TagEdits)
	}
	if p.Category != nil {
		if err := ValidateCategory(*p.Category); err != nil {
			return err
		}
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Project != nil {
		if err := ValidateProject(*p.Project); err != nil {
			return err
		}
		t.Project = strings.TrimSpace(*p.Project)
	}
	if p.Notes != nil {
		if err := ValidateNotes(*p.Notes); err != nil {
			return err
		}
		t.Notes = strings.TrimSpace(*p.Notes)
	}
	if err := Validate(t); err != nil {
		return err
	}
	return l.Update(t)
}

// Filter selects tasks for the list command.
type Filter struct {
	Status   *Status
	Category string
	Priority *Priority
	// Tags must all be present on a task.
	Tags []string
	// All includes archived tasks.
	All bool
}

func (f Filter) Match(t Task) bool {
	if !f.All && t.Status == Archived && f.Status == nil {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(strings.ToLower(tag)) {
			return false
		}
	}
	return true
}

func (l *List) Filter(f Filter) []Task {
	var out []Task
	for _, t := range l.Todos {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

type Stats struct {
	Total      int
	ByStatus   map[Status]int
	ByPriority map[Priority]int
	ByCategory map[string]int
}

func (l *List) Stats() Stats {
	s := Stats{
		Total:      len(l.Todos),
		ByStatus:   make(map[Status]int),
		ByPriority: make(map[Priority]int),
		ByCategory: make(map[string]int),
	}
	for _, t := range l.Todos {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		if t.Category != "" {
			s.ByCategory[t.Category]++
		}
	}
	return s
}
