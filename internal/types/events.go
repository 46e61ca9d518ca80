package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventUsersSet    EventType = "users.set"
	EventChannelsSet EventType = "channels.set"
	EventPostsSet    EventType = "posts.set"
	EventInvitesSet  EventType = "channelInvites.set"
	EventStoreReset  EventType = "store.reset"
	EventDemoMode    EventType = "demo.mode"
)

// EventForCollection returns the replace-all event of a collection.
func EventForCollection(collection string) EventType {
	return EventType(collection + ".set")
}

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// DemoModeEvent tells clients which data set they are looking at.
type DemoModeEvent struct {
	Active bool `json:"active"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
