package menu

import (
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/core/events"
)

const (
	EventCreated = "menu.created"
	EventUpdated = "menu.updated"
	EventDeleted = "menu.deleted"
)

// ChangedEvent is emitted for every structural change to the menu tree.
type ChangedEvent struct {
	events.BaseEvent
	Code string
}

func newChangedEvent(eventType string, n Node, at time.Time) ChangedEvent {
	return ChangedEvent{
		BaseEvent: events.NewBaseEvent(eventType, at, map[string]interface{}{
			"code":      n.Code,
			"is_active": n.IsActive,
		}),
		Code: n.Code,
	}
}
