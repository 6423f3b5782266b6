package user

import "time"

type User struct {
	ID             string    `db:"id" gorm:"column:id;primaryKey"`
	Username       string    `db:"username" gorm:"column:username;uniqueIndex;not null"`
	Name           string    `db:"name" gorm:"column:name;not null"`
	Email          string    `db:"email" gorm:"column:email"`
	OrganizationID *string   `db:"organization_id" gorm:"column:organization_id;index"`
	IsActive       bool      `db:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	Name        string    `db:"name" gorm:"column:name;primaryKey"`
	Description string    `db:"description" gorm:"column:description"`
	IsActive    bool      `db:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `db:"created_at" gorm:"column:created_at"`
}

func (Role) TableName() string {
	return "roles"
}

type UserRole struct {
	UserID   string `db:"user_id" gorm:"column:user_id;primaryKey"`
	RoleName string `db:"role_name" gorm:"column:role_name;primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Organization is a headquarters or a store.
type Organization struct {
	ID        string    `db:"id" gorm:"column:id;primaryKey"`
	Name      string    `db:"name" gorm:"column:name;not null"`
	Type      string    `db:"org_type" gorm:"column:org_type;not null"`
	ParentID  *string   `db:"parent_id" gorm:"column:parent_id"`
	IsActive  bool      `db:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at"`
}

func (Organization) TableName() string {
	return "organizations"
}
