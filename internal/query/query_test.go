package query

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/task"
)

var t0 = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func mk(id int, title string, opts ...func(*task.Task)) task.Task {
	t := task.Task{ID: id, Title: title, Priority: task.P2, Status: task.Todo, CreatedAt: t0}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func withTags(tags ...string) func(*task.Task) { return func(t *task.Task) { t.Tags = tags } }
func withStatus(s task.Status) func(*task.Task) { return func(t *task.Task) { t.Status = s } }
func withPriority(p task.Priority) func(*task.Task) {
	return func(t *task.Task) { t.Priority = p }
}
func withCategory(c string) func(*task.Task) { return func(t *task.Task) { t.Category = c } }
func withNotes(n string) func(*task.Task) { return func(t *task.Task) { t.Notes = n } }
func withCreated(at time.Time) func(*task.Task) {
	return func(t *task.Task) { t.CreatedAt = at }
}

func ids(ms []Match) []int {
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.Task.ID
	}
	return out
}

func TestParseSigils(t *testing.T) {
	q := Parse("  Login #Bug @Work !InProgress P1 fix  ")
	assert.Equal(t, []string{"login", "fix"}, q.Terms)
	assert.Equal(t, "bug", q.Tag)
	assert.Equal(t, "Work", q.Category)
	require.NotNil(t, q.Status)
	assert.Equal(t, task.InProgress, *q.Status)
	require.NotNil(t, q.Priority)
	assert.Equal(t, task.P1, *q.Priority)
}

func TestParseLastPredicateWins(t *testing.T) {
	q := Parse("#a #b !todo !done p1 p4 @x @y")
	assert.Equal(t, "b", q.Tag)
	assert.Equal(t, task.Done, *q.Status)
	assert.Equal(t, task.P4, *q.Priority)
	assert.Equal(t, "y", q.Category)
	assert.Empty(t, q.Terms)
}

func TestParseDegradesToFreeText(t *testing.T) {
	q := Parse("!someday p9 p10 pX # @ !")
	assert.Equal(t, []string{"!someday", "p9", "p10", "px"}, q.Terms)
	assert.Nil(t, q.Status)
	assert.Nil(t, q.Priority)
	assert.Empty(t, q.Tag)
	assert.Empty(t, q.Category)
}

func TestParseEmpty(t *testing.T) {
	assert.True(t, Parse("").Empty())
	assert.True(t, Parse(" \t\n ").Empty())
	assert.False(t, Parse("x").Empty())
	assert.False(t, Parse("#x").Empty())
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "#bug @work !inprogress p1 login", Parse("login p1 !in-progress @work #bug").String())
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{"", "login #bug", "!archived", "p0 p5 @x", "#", "\xff\xfe", "!!!", "p"} {
		f.Add(seed)
	}
	tasks := []task.Task{
		mk(1, "Fix the login bug", withTags("bug"), withNotes("auth")),
		mk(2, "ÜBER wichtig", withCategory("work")),
		mk(3, "archived", withStatus(task.Archived)),
	}
	f.Fuzz(func(t *testing.T, raw string) {
		q := Parse(raw)
		for _, term := range q.Terms {
			if term == "" {
				t.Fatalf("empty term from %q", raw)
			}
		}
		first := Rank(tasks, q)
		second := Rank(tasks, q)
		if !slices.Equal(ids(first), ids(second)) {
			t.Fatalf("rank not deterministic for %q", raw)
		}
	})
}

func TestRankScenarioLoginBug(t *testing.T) {
	tasks := []task.Task{
		mk(1, "Fix the login bug", withTags("bug", "urgent")),
		mk(2, "Login analytics", withTags("stats")),
	}
	got := RankString(tasks, "login #bug")
	assert.Equal(t, []int{1}, ids(got))
}

func TestRankExplicitArchivedOverridesExclusion(t *testing.T) {
	tasks := []task.Task{
		mk(1, "old", withStatus(task.Archived)),
		mk(2, "new"),
	}
	assert.Equal(t, []int{1}, ids(RankString(tasks, "!archived")))
	assert.Equal(t, []int{2}, ids(RankString(tasks, "")))
}

func TestRankEmptyQueryBrowseAll(t *testing.T) {
	tasks := []task.Task{
		mk(5, "e", withPriority(task.P3)),
		mk(2, "b", withPriority(task.P1)),
		mk(9, "x", withStatus(task.Archived), withPriority(task.P0)),
		mk(1, "a", withPriority(task.P3)),
		mk(3, "c", withPriority(task.P1), withStatus(task.Done)),
	}
	got := Rank(tasks, Parse(""))
	assert.Equal(t, []int{2, 3, 1, 5}, ids(got))
	for _, m := range got {
		assert.Zero(t, m.Score)
	}
}

func TestRankScoring(t *testing.T) {
	tasks := []task.Task{
		mk(1, "Deploy service"),                         // title word start: 3
		mk(2, "Redeploy", withPriority(task.P0)),         // title inside word: 2
		mk(3, "Unrelated", withTags("deploy")),           // tags: 2
		mk(4, "Other", withNotes("remember to deploy")),  // notes: 1
		mk(5, "deploy", withCategory("deploy"), withNotes("deploy")), // 3+2+1
		mk(6, "Nothing here"),
	}
	got := RankString(tasks, "DEPLOY")
	assert.Equal(t, []int{5, 1, 2, 3, 4}, ids(got))
	scores := map[int]int{}
	for _, m := range got {
		scores[m.Task.ID] = m.Score
	}
	assert.Equal(t, map[int]int{5: 6, 1: 3, 2: 2, 3: 2, 4: 1}, scores)
}

func TestRankTermsAreANDed(t *testing.T) {
	tasks := []task.Task{
		mk(1, "login page", withNotes("css")),
		mk(2, "login api"),
	}
	got := RankString(tasks, "login css")
	assert.Equal(t, []int{1}, ids(got))
	assert.Equal(t, 4, got[0].Score)
}

func TestRankTieBreaks(t *testing.T) {
	tasks := []task.Task{
		mk(4, "fix a", withPriority(task.P2)),
		mk(3, "fix b", withPriority(task.P2)),
		mk(7, "fix c", withPriority(task.P0)),
	}
	assert.Equal(t, []int{7, 3, 4}, ids(RankString(tasks, "fix")))
}

func TestRankPredicates(t *testing.T) {
	tasks := []task.Task{
		mk(1, "a", withCategory("Work"), withTags("bug"), withPriority(task.P1)),
		mk(2, "b", withCategory("home"), withTags("bugfix")),
		mk(3, "c", withCategory("work"), withStatus(task.InProgress)),
	}
	assert.Equal(t, []int{1, 3}, ids(RankString(tasks, "@WORK")))
	assert.Equal(t, []int{1}, ids(RankString(tasks, "#bug")), "tag match is exact")
	assert.Equal(t, []int{3}, ids(RankString(tasks, "!inprogress")))
	assert.Equal(t, []int{1}, ids(RankString(tasks, "p1")))
	assert.Empty(t, RankString(tasks, "@work p5"))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	tasks := []task.Task{mk(2, "b", withTags("x")), mk(1, "a")}
	before := fmt.Sprint(tasks)
	got := Rank(tasks, Parse(""))
	got[0].Task.Title = "changed"
	assert.Equal(t, before, fmt.Sprint(tasks))
}

func TestRankProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	words := []string{"alpha", "beta", "gamma", "delta", "Login", "bug"}
	pick := func() string { return words[r.IntN(len(words))] }
	for round := 0; round < 200; round++ {
		var tasks []task.Task
		for id := 1; id <= 12; id++ {
			tasks = append(tasks, mk(id, pick()+" "+pick(),
				withStatus(task.Status(r.IntN(4))),
				withPriority(task.Priority(r.IntN(6))),
				withTags(strings.ToLower(pick())),
				withNotes(pick()),
				withCategory(pick()),
			))
		}
		for _, m := range Rank(tasks, Parse("")) {
			assert.NotEqual(t, task.Archived, m.Task.Status)
		}
		browse := Rank(tasks, Parse(""))
		assert.True(t, slices.IsSortedFunc(browse, func(a, b Match) int {
			if a.Task.Priority != b.Task.Priority {
				return int(a.Task.Priority) - int(b.Task.Priority)
			}
			return a.Task.ID - b.Task.ID
		}))

		raw := strings.ToLower(pick() + " " + pick())
		for _, m := range RankString(tasks, raw) {
			hay := strings.ToLower(strings.Join([]string{m.Task.Title, m.Task.Notes, strings.Join(m.Task.Tags, " "), m.Task.Category}, "\n"))
			for _, term := range strings.Fields(raw) {
				assert.Contains(t, hay, term)
			}
		}
		assert.Equal(t, RankString(tasks, raw), RankString(tasks, raw))
	}
}

func TestOverviewFewerThanFour(t *testing.T) {
	tasks := []task.Task{mk(1, "a"), mk(2, "b", withStatus(task.InProgress)), mk(3, "c"), mk(4, "d", withStatus(task.Done))}
	ov := SelectOverview(tasks, OverviewOptions{PrioritySize: 4, DiscoverySize: 3, Rand: rand.New(rand.NewPCG(7, 7))})
	assert.Len(t, ov.Priority, 3)
	assert.Empty(t, ov.Discovery)
	assert.Equal(t, 3, ov.Active)
	assert.Equal(t, 1, ov.InProgress)
	assert.Equal(t, 1, ov.Done)
}

func TestOverviewPriorityOrder(t *testing.T) {
	tasks := []task.Task{
		mk(1, "old p1", withPriority(task.P1), withCreated(t0)),
		mk(2, "new p1", withPriority(task.P1), withCreated(t0.Add(time.Hour))),
		mk(3, "p0", withPriority(task.P0)),
		mk(4, "p3", withPriority(task.P3)),
		mk(5, "p4", withPriority(task.P4)),
		mk(6, "archived p0", withPriority(task.P0), withStatus(task.Archived)),
	}
	ov := SelectOverview(tasks, OverviewOptions{PrioritySize: 4, DiscoverySize: 3, Rand: rand.New(rand.NewPCG(1, 1))})
	var got []int
	for _, t := range ov.Priority {
		got = append(got, t.ID)
	}
	assert.Equal(t, []int{3, 2, 1, 4}, got)
	require.Len(t, ov.Discovery, 1)
	assert.Equal(t, 5, ov.Discovery[0].ID)
}

func TestOverviewDiscoveryDeterministicAndDisjoint(t *testing.T) {
	var tasks []task.Task
	for id := 1; id <= 20; id++ {
		tasks = append(tasks, mk(id, fmt.Sprintf("t%d", id), withPriority(task.Priority(id%6))))
	}
	opts := func(seed uint64) OverviewOptions {
		return OverviewOptions{PrioritySize: 4, DiscoverySize: 3, Rand: rand.New(rand.NewPCG(seed, seed))}
	}
	a := SelectOverview(tasks, opts(42))
	b := SelectOverview(tasks, opts(42))
	assert.Equal(t, a, b)
	require.Len(t, a.Discovery, 3)

	seen := map[int]bool{}
	for _, t := range a.Priority {
		seen[t.ID] = true
	}
	for _, d := range a.Discovery {
		assert.False(t, seen[d.ID], "discovery overlaps priority set")
		seen[d.ID] = true
	}
	assert.Len(t, seen, 7)
}

func TestOverviewDiscoveryCoversRemainder(t *testing.T) {
	var tasks []task.Task
	for id := 1; id <= 10; id++ {
		tasks = append(tasks, mk(id, "t"))
	}
	r := rand.New(rand.NewPCG(3, 9))
	hits := map[int]int{}
	for i := 0; i < 600; i++ {
		ov := SelectOverview(tasks, OverviewOptions{PrioritySize: 4, DiscoverySize: 3, Rand: r})
		for _, d := range ov.Discovery {
			hits[d.ID]++
		}
	}
	// Every one of the six non-priority tasks gets sampled.
	assert.Len(t, hits, 6)
}

func TestOverviewNilRand(t *testing.T) {
	tasks := []task.Task{mk(1, "a"), mk(2, "b"), mk(3, "c"), mk(4, "d"), mk(5, "e"), mk(6, "f")}
	ov := SelectOverview(tasks, OverviewOptions{PrioritySize: 4, DiscoverySize: 3})
	assert.Len(t, ov.Priority, 4)
	assert.Len(t, ov.Discovery, 2)
}
