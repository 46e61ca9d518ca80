package store

import (
	"sync"

	"github.com/princekumarofficial/angelia/internal/types"
)

// ResetCollection is the name passed to listeners after a reset.
const ResetCollection = "store"

// Listener is told which collection changed.
type Listener func(collection string)

// Store is the in-memory replica of the feed collections.
type Store struct {
	Users    *UserSlice
	Channels *Slice[types.Channel]
	Posts    *Slice[types.Post]
	Invites  *Slice[types.ChannelInvite]

	bus *ResetBus

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	s := &Store{
		bus:       &ResetBus{},
		listeners: make(map[int]Listener),
	}

	s.Users = newUserSlice(s.bus, s.emit)
	s.Channels = newSlice[types.Channel](types.CollectionChannels, Append, s.bus, s.emit)
	s.Posts = newSlice[types.Post](types.CollectionPosts, Prepend, s.bus, s.emit)
	s.Invites = newSlice[types.ChannelInvite](types.CollectionInvites, Append, s.bus, s.emit)

	return s
}

// Subscribe registers l for change notifications and returns its cancel func.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// OnReset lets other components react to the shared reset signal.
func (s *Store) OnReset(h func()) {
	s.bus.Register(h)
}

// Reset returns every slice to its initial empty state.
func (s *Store) Reset() {
	s.bus.Broadcast()
	s.emit(ResetCollection)
}

func (s *Store) emit(collection string) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(collection)
	}
}
