package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/user"
)

// User is a directory entry as seen by the permission engine: identity,
// role names and an optional organization (headquarters or store).
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Roles          []string  `json:"roles"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasOrganization() bool {
	return u.OrganizationID != nil && *u.OrganizationID != ""
}

func FromDataModel(row *userDatamodel.User, roles []string) *User {
	if roles == nil {
		roles = []string{}
	}
	return &User{
		ID:             row.ID,
		Username:       row.Username,
		Name:           row.Name,
		Email:          row.Email,
		OrganizationID: row.OrganizationID,
		Roles:          roles,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
