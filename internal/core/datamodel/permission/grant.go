package permission

import "time"

// MenuPermission is one row of permission history; at most one row per
// (menu_code, target_type, target_id) is active at a time.
type MenuPermission struct {
	ID         string     `gorm:"column:id;primaryKey"`
	MenuCode   string     `gorm:"column:menu_code;not null;index:idx_menu_permissions_target"`
	TargetType string     `gorm:"column:target_type;not null;index:idx_menu_permissions_target"`
	TargetID   string     `gorm:"column:target_id;not null;index:idx_menu_permissions_target"`
	Level      int        `gorm:"column:permission_level;not null"`
	GrantedBy  string     `gorm:"column:granted_by"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (MenuPermission) TableName() string {
	return "menu_permissions"
}
