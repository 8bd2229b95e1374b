// Package cache implements the process-wide property cache and its
// single-flight coordinator. Entries are immutable once stored: chemical
// facts do not change within a process lifetime, so there is no eviction and
// no TTL. The key space a deployment touches is small (thousands of CAS
// numbers at most), so unbounded growth is a deliberate choice.
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source reports where a Do result came from.
type Source int

const (
	// SourceCached means the value was already memoized.
	SourceCached Source = iota
	// SourceComputed means this caller ran the computation.
	SourceComputed
	// SourceShared means another in-flight caller ran the computation and
	// this caller received the same result.
	SourceShared
)

// Lookup is a concurrency-safe get-or-compute cache. Concurrent Do calls for
// the same key are collapsed into a single computation via singleflight; all
// waiters receive the one result. Successful results (including negative
// answers modeled as values, such as "no CID for this CAS") are memoized
// before the in-flight registration is released, so a caller arriving just
// as the computation completes can never start a duplicate. Errors are not
// memoized: a transient failure must not poison the key.
type Lookup[V any] struct {
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]V
}

// New creates an empty Lookup.
func New[V any]() *Lookup[V] {
	return &Lookup[V]{entries: make(map[string]V)}
}

// Get returns the memoized value for key, if any.
func (l *Lookup[V]) Get(key string) (V, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.entries[key]
	return v, ok
}

// Len returns the number of memoized entries.
func (l *Lookup[V]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Do returns the value for key, computing it at most once across all
// concurrent callers. compute runs without the cache lock held.
func (l *Lookup[V]) Do(key string, compute func() (V, error)) (V, Source, error) {
	if v, ok := l.Get(key); ok {
		return v, SourceCached, nil
	}

	res, err, shared := l.group.Do(key, func() (any, error) {
		// A previous flight may have stored the value between our Get and
		// the group registration.
		if v, ok := l.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.entries[key] = v
		l.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		if shared {
			return zero, SourceShared, err
		}
		return zero, SourceComputed, err
	}

	src := SourceComputed
	if shared {
		src = SourceShared
	}
	return res.(V), src, nil
}
