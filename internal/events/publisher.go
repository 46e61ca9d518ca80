package events

import (
	"time"

	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
)

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastAll(scope string, event *types.Event)
	BroadcastEach(scope string, render func(userID string) *types.Event)
}

// EventPublisher pushes store changes to the clients of one scope. Each
// user gets the collection narrowed to what it may read, the same rules
// the REST handlers apply.
type EventPublisher struct {
	hub   WebSocketHub
	store *store.Store
	scope string
	now   func() time.Time
}

// NewEventPublisher creates a publisher for the clients in scope. The live
// replica uses the empty scope, demo sessions their id.
func NewEventPublisher(hub WebSocketHub, st *store.Store, scope string) *EventPublisher {
	return &EventPublisher{
		hub:   hub,
		store: st,
		scope: scope,
		now:   time.Now,
	}
}

// Start subscribes to the store and returns the cancel func.
func (p *EventPublisher) Start() func() {
	return p.store.Subscribe(p.PublishCollection)
}

// PublishCollection sends every client its view of collection.
func (p *EventPublisher) PublishCollection(collection string) {
	if collection == store.ResetCollection {
		p.hub.BroadcastAll(p.scope, types.NewEvent(types.EventStoreReset, nil))
		return
	}
	if !known(collection) {
		return
	}
	p.hub.BroadcastEach(p.scope, func(userID string) *types.Event {
		return p.collectionEvent(collection, userID)
	})
}

var collections = []string{
	types.CollectionUsers,
	types.CollectionChannels,
	types.CollectionPosts,
	types.CollectionInvites,
}

func known(collection string) bool {
	for _, c := range collections {
		if c == collection {
			return true
		}
	}
	return false
}

// Snapshot returns one event per collection as userID sees it, for
// clients that just connected.
func (p *EventPublisher) Snapshot(userID string) []*types.Event {
	events := make([]*types.Event, 0, len(collections))
	for _, c := range collections {
		events = append(events, p.collectionEvent(c, userID))
	}
	return events
}

func (p *EventPublisher) collectionEvent(collection, userID string) *types.Event {
	var data interface{}
	switch collection {
	case types.CollectionUsers:
		data = p.store.VisibleUsers(userID)
	case types.CollectionChannels:
		data = p.store.VisibleChannels(userID)
	case types.CollectionPosts:
		data = p.store.Feed(userID, p.now())
	case types.CollectionInvites:
		data = p.store.VisibleInvites(userID)
	default:
		return nil
	}
	return types.NewEvent(types.EventForCollection(collection), data)
}

// PublishDemoMode tells the clients of this scope which data set they are
// looking at.
func (p *EventPublisher) PublishDemoMode(active bool) {
	p.hub.BroadcastAll(p.scope, types.NewEvent(types.EventDemoMode, types.DemoModeEvent{Active: active}))
}
