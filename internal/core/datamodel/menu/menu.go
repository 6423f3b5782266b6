package menu

import "time"

type Menu struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Code         string    `gorm:"column:code;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Path         string    `gorm:"column:path"`
	ParentID     *int64    `gorm:"column:parent_id;index"`
	Level        int       `gorm:"column:menu_level;not null"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	Type         string    `gorm:"column:menu_type;not null"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Menu) TableName() string {
	return "menus"
}
