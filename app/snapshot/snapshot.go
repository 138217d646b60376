// Package snapshot keeps the local copy of remote records a view renders
// and reconciles it with confirmed store responses.
//
// A snapshot only ever changes to values the store has confirmed. Failed
// mutations leave it as it was, and once closed it ignores every change.
package snapshot

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrClosed is returned when a result arrives for a view that has been torn down.
var ErrClosed = errors.New("snapshot closed")

// Entity is a record that can be held in a Snapshot.
type Entity interface {
	Key() string
	Created() time.Time
}

// Snapshot is an ordered local cache of entities, most recent first.
type Snapshot[T Entity] struct {
	mutex  sync.RWMutex
	items  []T
	closed bool
}

// New returns a snapshot holding items.
func New[T Entity](items ...T) *Snapshot[T] {
	s := &Snapshot[T]{}
	s.Replace(items)
	return s
}

// Replace discards the current content in favor of items. It reports
// false if the snapshot is closed.
func (s *Snapshot[T]) Replace(items []T) bool {
	next := make([]T, len(items))
	copy(next, items)
	sortNewestFirst(next)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return false
	}
	s.items = next
	return true
}

// Upsert replaces the entity with the same key in place, or inserts a new
// one at its position by creation time.
func (s *Snapshot[T]) Upsert(item T) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return false
	}
	if i := s.index(item.Key()); i >= 0 {
		s.items[i] = item
		return true
	}
	i := sort.Search(len(s.items), func(i int) bool {
		return before(item, s.items[i])
	})
	s.items = append(s.items, item)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
	return true
}

// Remove drops the entity with key. It reports whether anything was removed.
func (s *Snapshot[T]) Remove(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return false
	}
	i := s.index(key)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Get returns the entity with key.
func (s *Snapshot[T]) Get(key string) (T, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if i := s.index(key); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the content in display order.
func (s *Snapshot[T]) Items() []T {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of entities held.
func (s *Snapshot[T]) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.items)
}

// Close freezes the snapshot. Later changes are ignored.
func (s *Snapshot[T]) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Snapshot[T]) Closed() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.closed
}

func (s *Snapshot[T]) index(key string) int {
	for i, item := range s.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// before orders by creation time descending, ties by key descending.
func before(a, b Entity) bool {
	ca, cb := a.Created(), b.Created()
	if !ca.Equal(cb) {
		return ca.After(cb)
	}
	return a.Key() > b.Key()
}

func sortNewestFirst[T Entity](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return before(items[i], items[j])
	})
}
