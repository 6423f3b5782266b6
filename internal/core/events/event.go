package events

import (
	"time"

	"github.com/google/uuid"
)

// NewBaseEvent stamps an event envelope with a fresh id.
func NewBaseEvent(eventType string, at time.Time, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}
}
