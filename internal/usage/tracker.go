// Package usage counts compound lookups for the stats surface.
package usage

import (
	"sort"
	"sync"

	"github.com/chemstack/formulant/internal/metrics"
	"github.com/chemstack/formulant/internal/model"
)

// Tracker accumulates per-CAS lookup counters. Counts only grow; state lives
// for the process lifetime and resets on restart. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	counters map[string]*model.UsageCounter
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{counters: make(map[string]*model.UsageCounter)}
}

// Record registers one lookup attempt for cas with its outcome. The
// increment and last-outcome update are atomic per CAS; no ordering is
// guaranteed across concurrent callers beyond that.
func (t *Tracker) Record(cas string, outcome model.Outcome) {
	t.mu.Lock()
	c, ok := t.counters[cas]
	if !ok {
		c = &model.UsageCounter{CAS: cas}
		t.counters[cas] = c
	}
	c.LookupCount++
	c.LastOutcome = outcome
	t.mu.Unlock()

	metrics.ObserveLookup(string(outcome))
}

// Count returns the current lookup count for cas.
func (t *Tracker) Count(cas string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.counters[cas]; ok {
		return c.LookupCount
	}
	return 0
}

// Snapshot returns a copy of every counter, sorted by CAS for stable output.
func (t *Tracker) Snapshot() []model.UsageCounter {
	t.mu.Lock()
	out := make([]model.UsageCounter, 0, len(t.counters))
	for _, c := range t.counters {
		out = append(out, *c)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CAS < out[j].CAS })
	return out
}
