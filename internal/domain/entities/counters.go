package entities

import (
	"iter"
	"maps"
	"slices"
)

// UsageCounters counts how many source rows referenced each entity, keyed
// by kind. Counts only grow.
type UsageCounters struct {
	counts map[Kind]map[Identifier]int
}

// NewUsageCounters creates an empty counter set.
func NewUsageCounters() *UsageCounters {
	return &UsageCounters{counts: make(map[Kind]map[Identifier]int)}
}

// Increment adds one reference to id and returns the new count.
func (c *UsageCounters) Increment(kind Kind, id Identifier) int {
	byID, ok := c.counts[kind]
	if !ok {
		byID = make(map[Identifier]int)
		c.counts[kind] = byID
	}
	byID[id]++
	return byID[id]
}

// Add raises the count for id by n. Negative n is ignored.
func (c *UsageCounters) Add(kind Kind, id Identifier, n int) {
	if n <= 0 {
		return
	}
	byID, ok := c.counts[kind]
	if !ok {
		byID = make(map[Identifier]int)
		c.counts[kind] = byID
	}
	byID[id] += n
}

// Count returns the number of references recorded for id.
func (c *UsageCounters) Count(kind Kind, id Identifier) int {
	return c.counts[kind][id]
}

// Distinct returns how many entities of kind were referenced.
func (c *UsageCounters) Distinct(kind Kind) int {
	return len(c.counts[kind])
}

// Total returns the sum of all references for kind.
func (c *UsageCounters) Total(kind Kind) int {
	total := 0
	for _, n := range c.counts[kind] {
		total += n
	}
	return total
}

// Kinds returns the kinds with at least one counter, sorted.
func (c *UsageCounters) Kinds() []Kind {
	return slices.Sorted(maps.Keys(c.counts))
}

// All yields the counters of kind ordered by identifier.
func (c *UsageCounters) All(kind Kind) iter.Seq2[Identifier, int] {
	return func(yield func(Identifier, int) bool) {
		byID := c.counts[kind]
		for _, id := range slices.Sorted(maps.Keys(byID)) {
			if !yield(id, byID[id]) {
				return
			}
		}
	}
}

// Merge adds every counter of other into c.
func (c *UsageCounters) Merge(other *UsageCounters) {
	if other == nil {
		return
	}
	for kind, byID := range other.counts {
		for id, n := range byID {
			c.Add(kind, id, n)
		}
	}
}
