package permission

import (
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/core/events"
)

const (
	EventGranted = "permission.granted"
	EventRevoked = "permission.revoked"
)

// GrantChangedEvent carries enough of the grant to decide which caches to drop.
type GrantChangedEvent struct {
	events.BaseEvent
	MenuCode   string
	TargetType TargetType
	TargetID   string
	Level      Level
}

func newGrantChangedEvent(eventType string, g Grant, actor string, at time.Time) GrantChangedEvent {
	return GrantChangedEvent{
		BaseEvent: events.NewBaseEvent(eventType, at, map[string]interface{}{
			"grant_id":    g.ID,
			"menu_code":   g.MenuCode,
			"target_type": g.TargetType.String(),
			"target_id":   g.TargetID,
			"level":       g.Level.String(),
			"actor":       actor,
		}),
		MenuCode:   g.MenuCode,
		TargetType: g.TargetType,
		TargetID:   g.TargetID,
		Level:      g.Level,
	}
}
