package query

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"todo/internal/task"
)

// Score weights per free-text term.
const (
	WeightTitleWordStart = 3
	WeightTitle          = 2
	WeightTagsOrCategory = 2
	WeightNotes          = 1
)

type Match struct {
	Task  task.Task
	Score int
}

// Rank filters and orders tasks for q. It never mutates its input and
// returns the same output for the same arguments.
//
// Order: score descending, then priority ascending (P0 first), then id
// ascending.
func Rank(tasks []task.Task, q Query) []Match {
	var out []Match
	for _, t := range tasks {
		if !q.Match(t) {
			continue
		}
		score, ok := scoreTerms(t, q.Terms)
		if !ok {
			continue
		}
		out = append(out, Match{Task: t.Clone(), Score: score})
	}
	slices.SortFunc(out, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Task.Priority, b.Task.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Task.ID, b.Task.ID)
	})
	return out
}

// RankString parses raw and ranks tasks against it.
func RankString(tasks []task.Task, raw string) []Match {
	return Rank(tasks, Parse(raw))
}

// scoreTerms sums the per-term contributions. ok is false as soon as one
// term appears in none of the searchable fields.
func scoreTerms(t task.Task, terms []string) (int, bool) {
	if len(terms) == 0 {
		return 0, true
	}
	title := strings.ToLower(t.Title)
	notes := strings.ToLower(t.Notes)
	tags := strings.ToLower(strings.Join(t.Tags, " "))
	category := strings.ToLower(t.Category)

	total := 0
	for _, term := range terms {
		score := titleScore(title, term)
		if strings.Contains(tags, term) || strings.Contains(category, term) {
			score += WeightTagsOrCategory
		}
		if strings.Contains(notes, term) {
			score += WeightNotes
		}
		if score == 0 {
			return 0, false
		}
		total += score
	}
	return total, true
}

func titleScore(title, term string) int {
	found := false
	for offset := 0; offset <= len(title); {
		i := strings.Index(title[offset:], term)
		if i < 0 {
			break
		}
		found = true
		at := offset + i
		if wordStart(title, at) {
			return WeightTitleWordStart
		}
		_, size := utf8.DecodeRuneInString(title[at:])
		offset = at + max(size, 1)
	}
	if found {
		return WeightTitle
	}
	return 0
}

func wordStart(s string, at int) bool {
	if at == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:at])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}
