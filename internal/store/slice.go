package store

import (
	"slices"
	"sync"
)

// Keyed is implemented by every entity held in a slice.
type Keyed interface {
	Key() string
}

// Placement decides where AddOne puts a new item.
type Placement int

const (
	Append Placement = iota
	Prepend
)

// Slice holds one entity collection. Every mutation replaces the backing
// array so readers holding a previous Items() result never observe a change.
type Slice[T Keyed] struct {
	name      string
	placement Placement
	notify    func(collection string)

	mu      sync.RWMutex
	items   []T
	seq     uint64
	applied bool
}

func newSlice[T Keyed](name string, placement Placement, bus *ResetBus, notify func(string)) *Slice[T] {
	s := &Slice[T]{
		name:      name,
		placement: placement,
		notify:    notify,
		items:     []T{},
	}
	bus.Register(s.reset)
	return s
}

func (s *Slice[T]) Name() string { return s.name }

// SetAll replaces the collection wholesale.
func (s *Slice[T]) SetAll(items []T) {
	s.mu.Lock()
	s.items = cloneOrEmpty(items)
	s.mu.Unlock()
	s.changed()
}

// ApplySnapshot replaces the collection with a remote snapshot unless a
// snapshot with a higher sequence has already been applied. It reports
// whether the snapshot was applied.
func (s *Slice[T]) ApplySnapshot(seq uint64, items []T) bool {
	s.mu.Lock()
	if s.applied && seq < s.seq {
		s.mu.Unlock()
		return false
	}
	s.items = cloneOrEmpty(items)
	s.seq = seq
	s.applied = true
	s.mu.Unlock()
	s.changed()
	return true
}

func (s *Slice[T]) AddOne(item T) {
	s.mu.Lock()
	s.insertLocked(item)
	s.mu.Unlock()
	s.changed()
}

func (s *Slice[T]) insertLocked(item T) {
	next := make([]T, 0, len(s.items)+1)
	if s.placement == Prepend {
		next = append(next, item)
		next = append(next, s.items...)
	} else {
		next = append(next, s.items...)
		next = append(next, item)
	}
	s.items = next
}

// UpdateOne replaces the item with the same key. Unknown keys are ignored.
func (s *Slice[T]) UpdateOne(item T) {
	s.mu.Lock()
	idx := s.indexOf(item.Key())
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := slices.Clone(s.items)
	next[idx] = item
	s.items = next
	s.mu.Unlock()
	s.changed()
}

// UpsertOne updates the item in place or adds it when missing, as one step.
func (s *Slice[T]) UpsertOne(item T) {
	s.mu.Lock()
	if idx := s.indexOf(item.Key()); idx >= 0 {
		next := slices.Clone(s.items)
		next[idx] = item
		s.items = next
	} else {
		s.insertLocked(item)
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Slice[T]) RemoveOne(id string) {
	s.mu.Lock()
	next := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if it.Key() != id {
			next = append(next, it)
		}
	}
	s.items = next
	s.mu.Unlock()
	s.changed()
}

func (s *Slice[T]) Clear() {
	s.mu.Lock()
	s.items = []T{}
	s.mu.Unlock()
	s.changed()
}

// LoadDemo swaps the collection for seed data.
func (s *Slice[T]) LoadDemo(items []T) {
	s.mu.Lock()
	s.items = cloneOrEmpty(items)
	s.seq = 0
	s.applied = false
	s.mu.Unlock()
	s.changed()
}

// Items returns the current collection. Callers must not modify it.
func (s *Slice[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

func (s *Slice[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	var zero T
	return zero, false
}

func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Filter returns the items matching keep, in collection order.
func (s *Slice[T]) Filter(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []T{}
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Slice[T]) reset() {
	s.mu.Lock()
	s.items = []T{}
	s.seq = 0
	s.applied = false
	s.mu.Unlock()
}

func (s *Slice[T]) indexOf(id string) int {
	for i, it := range s.items {
		if it.Key() == id {
			return i
		}
	}
	return -1
}

func (s *Slice[T]) changed() {
	if s.notify != nil {
		s.notify(s.name)
	}
}

func cloneOrEmpty[T any](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}
	return slices.Clone(items)
}
