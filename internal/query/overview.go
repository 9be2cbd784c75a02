package query

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"todo/internal/task"
)

const (
	DefaultPrioritySize  = 4
	DefaultDiscoverySize = 3
)

// Overview is the default, non-search view: the most urgent active tasks
// plus a random sample of the other active ones.
type Overview struct {
	Priority  []task.Task
	Discovery []task.Task

	Active     int
	InProgress int
	Done       int
}

type OverviewOptions struct {
	PrioritySize  int
	DiscoverySize int
	// Rand drives the discovery sample. Nil uses a freshly seeded source.
	Rand *rand.Rand
}

// SelectOverview picks up to PrioritySize active tasks by priority then
// newest first, and up to DiscoverySize of the remaining active tasks
// uniformly at random. Shortfalls are not an error.
func SelectOverview(tasks []task.Task, opts OverviewOptions) Overview {
	var ov Overview
	var active []task.Task
	for _, t := range tasks {
		if t.IsActive() {
			active = append(active, t.Clone())
		}
		switch t.Status {
		case task.InProgress:
			ov.InProgress++
		case task.Done:
			ov.Done++
		}
	}
	ov.Active = len(active)

	slices.SortStableFunc(active, func(a, b task.Task) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	n := min(max(opts.PrioritySize, 0), len(active))
	ov.Priority = active[:n:n]
	rest := slices.Clone(active[n:])

	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	k := min(max(opts.DiscoverySize, 0), len(rest))
	// Partial Fisher-Yates: the first k slots end up a uniform sample.
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(rest)-i)
		rest[i], rest[j] = rest[j], rest[i]
	}
	ov.Discovery = rest[:k:k]
	return ov
}
