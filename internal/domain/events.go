package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names something that happened to a project or one of its parts.
type EventType string

const (
	EventProjectCreated  EventType = "project.created"
	EventProjectUpdated  EventType = "project.updated"
	EventProjectDeleted  EventType = "project.deleted"
	EventProjectExported EventType = "project.exported"
	EventNodeCreated     EventType = "node.created"
	EventNodeUpdated     EventType = "node.updated"
	EventNodeDeleted     EventType = "node.deleted"
	EventGroupCreated    EventType = "group.created"
	EventGroupUpdated    EventType = "group.updated"
	EventGroupDeleted    EventType = "group.deleted"
	EventAssetCreated    EventType = "asset.created"
	EventAssetDeleted    EventType = "asset.deleted"
)

// Event is a domain event raised after a successful mutation.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	ProjectID  int64          `json:"projectId"`
	EntityID   string         `json:"entityId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh id.
func NewEvent(eventType EventType, projectID int64, entityID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProjectID:  projectID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// With attaches a data attribute to the event.
func (e Event) With(key string, value any) Event {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}
