package extractor

import (
	"math"
	"sort"
	"strings"

	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

// counter tallies string keys and remembers first-seen order for tie breaks.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

type rankedEntry struct {
	key   string
	count int
}

// ranked sorts by count descending; equal counts keep first-seen order.
func (c *counter) ranked() []rankedEntry {
	out := make([]rankedEntry, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, rankedEntry{key: k, count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// priorityTally counts priorities per key.
type priorityTally map[string]map[taskdomain.Priority]int

func (t priorityTally) add(key string, p taskdomain.Priority) {
	if p == "" {
		return
	}
	if t[key] == nil {
		t[key] = make(map[taskdomain.Priority]int)
	}
	t[key][p]++
}

func (t priorityTally) mostFrequent() map[string]taskdomain.Priority {
	out := make(map[string]taskdomain.Priority, len(t))
	for key, counts := range t {
		out[key] = mostFrequentPriority(counts)
	}
	return out
}

// mostFrequentPriority breaks ties toward the more severe priority.
func mostFrequentPriority(counts map[taskdomain.Priority]int) taskdomain.Priority {
	var (
		best      taskdomain.Priority
		bestCount int
	)
	for p, n := range counts {
		if n > bestCount || (n == bestCount && p.Rank() > best.Rank()) {
			best, bestCount = p, n
		}
	}
	return best
}

// stringSet collects unique values per key.
type stringSet map[string]map[string]struct{}

func (s stringSet) add(key, value string) {
	if s[key] == nil {
		s[key] = make(map[string]struct{})
	}
	s[key][value] = struct{}{}
}

func (s stringSet) sorted() map[string][]string {
	out := make(map[string][]string, len(s))
	for key, values := range s {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out[key] = list
	}
	return out
}

// uniqueTags trims, drops empties and de-duplicates, keeping first occurrence.
func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
