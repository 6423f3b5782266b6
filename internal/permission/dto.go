package permission

import (
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/core/common/validation"
)

type GrantRequest struct {
	MenuCode   string     `json:"menu_code"`
	TargetType string     `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Level      string     `json:"level"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (r GrantRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("menu_code", r.MenuCode).Required().Code()
	v.Field("target_type", r.TargetType).Required()
	v.Field("target_id", r.TargetID).Required().MaxLength(64)
	v.Field("level", r.Level).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ToCommand parses the request; grantedBy is the authenticated caller.
func (r GrantRequest) ToCommand(grantedBy string, now time.Time) (GrantCommand, error) {
	if err := r.Validate(); err != nil {
		return GrantCommand{}, err
	}
	targetType, err := ParseTargetType(r.TargetType)
	if err != nil {
		return GrantCommand{}, err
	}
	level, err := ParseLevel(r.Level)
	if err != nil {
		return GrantCommand{}, err
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return GrantCommand{}, internal.NewValidationFieldError("expires_at", "expires_at must be in the future", internal.ErrCodeValidationFailed)
	}
	return GrantCommand{
		MenuCode:   r.MenuCode,
		TargetType: targetType,
		TargetID:   r.TargetID,
		Level:      level,
		GrantedBy:  grantedBy,
		ExpiresAt:  r.ExpiresAt,
	}, nil
}

type RefreshRequest struct {
	Scope    string `json:"scope"`
	Username string `json:"username,omitempty"`
	MenuCode string `json:"menu_code,omitempty"`
}

const (
	RefreshScopeUser = "user"
	RefreshScopeAll  = "all"
	RefreshScopeMenu = "menu"
)

type GrantResponse struct {
	ID         string     `json:"id"`
	MenuCode   string     `json:"menu_code"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Level      string     `json:"level"`
	GrantedBy  string     `json:"granted_by"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (g Grant) ToResponse() GrantResponse {
	return GrantResponse{
		ID:         g.ID,
		MenuCode:   g.MenuCode,
		TargetType: g.TargetType,
		TargetID:   g.TargetID,
		Level:      g.Level.String(),
		GrantedBy:  g.GrantedBy,
		IsActive:   g.IsActive,
		ExpiresAt:  g.ExpiresAt,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

type GrantsResponse struct {
	Grants []GrantResponse `json:"grants"`
}

type MenuItemResponse struct {
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Path         string            `json:"path"`
	ParentID     *int64            `json:"parent_id,omitempty"`
	Level        int               `json:"level"`
	DisplayOrder int               `json:"display_order"`
	Type         string            `json:"type"`
	Permission   DisplayPermission `json:"permission"`
}

type UserMenusResponse struct {
	Menus []MenuItemResponse `json:"menus"`
}

func ToUserMenusResponse(menus []UserMenu) UserMenusResponse {
	items := make([]MenuItemResponse, 0, len(menus))
	for _, m := range menus {
		items = append(items, MenuItemResponse{
			Code:         m.Menu.Code,
			Name:         m.Menu.Name,
			Path:         m.Menu.Path,
			ParentID:     m.Menu.ParentID,
			Level:        m.Menu.Level,
			DisplayOrder: m.Menu.DisplayOrder,
			Type:         string(m.Menu.Type),
			Permission:   m.Permission,
		})
	}
	return UserMenusResponse{Menus: items}
}

type SummaryResponse struct {
	Username    string            `json:"username"`
	Permissions map[string]string `json:"permissions"`
}

type CheckResponse struct {
	Menu    string `json:"menu"`
	Level   string `json:"level"`
	Allowed bool   `json:"allowed"`
}
