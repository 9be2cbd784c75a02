// Package query turns free-form search strings into structured predicates
// and ranks tasks against them.
//
// Search syntax, whitespace separated:
//
//	#tag       task carries the tag (exact, lowercased)
//	@category  category equals (case-insensitive)
//	!status    status equals: todo, inprogress, done, archived
//	p0..p5     priority equals
//	word       free text; every word must appear in title, notes, tags or category
//
// Repeating a predicate kind keeps the last one. Tokens that look like a
// predicate but do not parse (for example "!someday") are free text.
package query

import (
	"strings"

	"todo/internal/task"
)

type Query struct {
	// Terms are the lowercased free-text tokens, in input order.
	Terms    []string
	Tag      string
	Category string
	Status   *task.Status
	Priority *task.Priority
}

// Parse never fails; malformed input degrades to free text.
func Parse(raw string) Query {
	var q Query
	for _, tok := range strings.Fields(raw) {
		q.add(tok)
	}
	return q
}

func (q *Query) add(tok string) {
	switch tok[0] {
	case '#':
		if rest := tok[1:]; rest != "" {
			q.Tag = strings.ToLower(rest)
		}
		return
	case '@':
		if rest := tok[1:]; rest != "" {
			q.Category = rest
		}
		return
	case '!':
		rest := tok[1:]
		if rest == "" {
			return
		}
		if s, err := task.ParseStatus(rest); err == nil {
			q.Status = &s
			return
		}
	case 'p', 'P':
		if len(tok) == 2 {
			if p, err := task.ParsePriority(tok); err == nil {
				q.Priority = &p
				return
			}
		}
	}
	q.Terms = append(q.Terms, strings.ToLower(tok))
}

// Empty reports whether the query has neither terms nor predicates.
func (q Query) Empty() bool {
	return len(q.Terms) == 0 && !q.HasPredicates()
}

func (q Query) HasPredicates() bool {
	return q.Tag != "" || q.Category != "" || q.Status != nil || q.Priority != nil
}

// Match applies the structured predicates, including the default
// exclusion of archived tasks when no status predicate is present.
func (q Query) Match(t task.Task) bool {
	if q.Status != nil {
		if t.Status != *q.Status {
			return false
		}
	} else if t.Status == task.Archived {
		return false
	}
	if q.Tag != "" && !hasTagFold(t.Tags, q.Tag) {
		return false
	}
	if q.Category != "" && !strings.EqualFold(t.Category, q.Category) {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	return true
}

func hasTagFold(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.ToLower(tag) == want {
			return true
		}
	}
	return false
}

// String renders the query back in search syntax, predicates first.
func (q Query) String() string {
	var parts []string
	if q.Tag != "" {
		parts = append(parts, "#"+q.Tag)
	}
	if q.Category != "" {
		parts = append(parts, "@"+q.Category)
	}
	if q.Status != nil {
		parts = append(parts, "!"+strings.ToLower(q.Status.String()))
	}
	if q.Priority != nil {
		parts = append(parts, strings.ToLower(q.Priority.String()))
	}
	parts = append(parts, q.Terms...)
	return strings.Join(parts, " ")
}
