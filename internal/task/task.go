// Package task holds the todo data model: the Task record, its enumerated
// priority and status, and the TaskList aggregate that owns id assignment.
package task

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Priority int

const (
	P0 Priority = iota
	P1
	P2
	P3
	P4
	P5
)

const DefaultPriority = P2

var priorityLabels = [...]string{
	P0: "Urgent",
	P1: "Must have",
	P2: "Should do",
	P3: "Nice to have",
	P4: "Wishlist",
	P5: "Worth considering",
}

// Priorities lists every priority from most to least urgent.
func Priorities() []Priority {
	return []Priority{P0, P1, P2, P3, P4, P5}
}

func (p Priority) Valid() bool {
	return p >= P0 && p <= P5
}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return fmt.Sprintf("P%d", int(p))
}

// Label is the long form shown in the editor, e.g. "P1 - Must have".
func (p Priority) Label() string {
	if !p.Valid() {
		return p.String()
	}
	return p.String() + " - " + priorityLabels[p]
}

// Raise moves one step toward P0 and saturates there.
func (p Priority) Raise() Priority {
	if p <= P0 {
		return P0
	}
	return p - 1
}

// Lower moves one step toward P5 and saturates there.
func (p Priority) Lower() Priority {
	if p >= P5 {
		return P5
	}
	return p + 1
}

// ParsePriority accepts p0..p5 in any case.
func ParsePriority(s string) (Priority, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) == 2 && v[0] == 'p' && v[1] >= '0' && v[1] <= '5' {
		return Priority(v[1] - '0'), nil
	}
	return 0, fmt.Errorf("invalid priority %q: valid values are p0, p1, p2, p3, p4, p5", s)
}

func (p Priority) MarshalYAML() (any, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return p.String(), nil
}

func (p *Priority) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParsePriority(value.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type Status int

const (
	Todo Status = iota
	InProgress
	Done
	Archived
)

var statusNames = [...]string{
	Todo:       "Todo",
	InProgress: "InProgress",
	Done:       "Done",
	Archived:   "Archived",
}

// Statuses lists every status in workflow order.
func Statuses() []Status {
	return []Status{Todo, InProgress, Done, Archived}
}

func (s Status) Valid() bool {
	return s >= Todo && s <= Archived
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Label is the human form shown in the editor.
func (s Status) Label() string {
	if s == InProgress {
		return "In Progress"
	}
	return s.String()
}

// ParseStatus is case-insensitive and accepts the in-progress spellings
// "inprogress", "in-progress" and "in_progress".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return Todo, nil
	case "inprogress", "in-progress", "in_progress":
		return InProgress, nil
	case "done":
		return Done, nil
	case "archived":
		return Archived, nil
	}
	return 0, fmt.Errorf("invalid status %q: valid values are todo, inprogress, done, archived", s)
}

func (s Status) MarshalYAML() (any, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return s.String(), nil
}

func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseStatus(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Task is one work item. Optional string fields are absent when empty.
type Task struct {
	ID         int        `yaml:"id"`
	Title      string     `yaml:"title"`
	Priority   Priority   `yaml:"priority"`
	Status     Status     `yaml:"status"`
	Tags       []string   `yaml:"tags,omitempty"`
	Category   string     `yaml:"category,omitempty"`
	Project    string     `yaml:"project,omitempty"`
	CreatedAt  time.Time  `yaml:"created_at"`
	FinishedAt *time.Time `yaml:"finished_at,omitempty"`
	Notes      string     `yaml:"notes,omitempty"`
}

// New returns an unsaved task (id 0) with default priority and status.
func New(title string, now time.Time) Task {
	return Task{
		Title:     strings.TrimSpace(title),
		Priority:  DefaultPriority,
		Status:    Todo,
		CreatedAt: now,
	}
}

func (t Task) IsActive() bool {
	return t.Status == Todo || t.Status == InProgress
}

func (t Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = slices.Clone(t.Tags)
	}
	if t.FinishedAt != nil {
		fin := *t.FinishedAt
		c.FinishedAt = &fin
	}
	return c
}

// SetStatus applies a status transition. Entering Done stamps FinishedAt,
// leaving Done clears it.
func (t *Task) SetStatus(s Status, now time.Time) {
	if s == t.Status {
		return
	}
	prev := t.Status
	t.Status = s
	switch {
	case s == Done:
		fin := now
		if fin.Before(t.CreatedAt) {
			fin = t.CreatedAt
		}
		t.FinishedAt = &fin
	case prev == Done:
		t.FinishedAt = nil
	}
}
