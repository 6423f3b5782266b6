package permission

import (
	"time"

	permissionDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
	"github.com/google/uuid"
)

// Grant assigns a level on one menu to a user, a role or an organization.
// Rows are never deleted; revocation flips IsActive.
type Grant struct {
	ID         string     `json:"id"`
	MenuCode   string     `json:"menu_code"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Level      Level      `json:"level"`
	GrantedBy  string     `json:"granted_by"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EffectiveAt reports whether the grant counts at the given instant.
func (g Grant) EffectiveAt(now time.Time) bool {
	if !g.IsActive || !g.Level.Valid() {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

type GrantCommand struct {
	MenuCode   string
	TargetType TargetType
	TargetID   string
	Level      Level
	GrantedBy  string
	ExpiresAt  *time.Time
}

// NewGrant builds an active grant. Validation against the directories happens in the service.
func NewGrant(cmd GrantCommand, now time.Time) (Grant, []events.Event) {
	g := Grant{
		ID:         uuid.New().String(),
		MenuCode:   cmd.MenuCode,
		TargetType: cmd.TargetType,
		TargetID:   cmd.TargetID,
		Level:      cmd.Level,
		GrantedBy:  cmd.GrantedBy,
		IsActive:   true,
		ExpiresAt:  cmd.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return g, []events.Event{newGrantChangedEvent(EventGranted, g, cmd.GrantedBy, now)}
}

func (g Grant) Revoke(revokedBy string, now time.Time) (Grant, []events.Event) {
	g.IsActive = false
	g.UpdatedAt = now
	return g, []events.Event{newGrantChangedEvent(EventRevoked, g, revokedBy, now)}
}

func ToDataModel(g Grant) *permissionDatamodel.MenuPermission {
	return &permissionDatamodel.MenuPermission{
		ID:         g.ID,
		MenuCode:   g.MenuCode,
		TargetType: g.TargetType.String(),
		TargetID:   g.TargetID,
		Level:      int(g.Level),
		GrantedBy:  g.GrantedBy,
		IsActive:   g.IsActive,
		ExpiresAt:  g.ExpiresAt,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

// FromDataModel rejects rows whose target type is not one we know.
func FromDataModel(row *permissionDatamodel.MenuPermission) (Grant, error) {
	targetType, err := ParseTargetType(row.TargetType)
	if err != nil {
		return Grant{}, err
	}
	return Grant{
		ID:         row.ID,
		MenuCode:   row.MenuCode,
		TargetType: targetType,
		TargetID:   row.TargetID,
		Level:      Level(row.Level),
		GrantedBy:  row.GrantedBy,
		IsActive:   row.IsActive,
		ExpiresAt:  row.ExpiresAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}
