package postgres

import (
	"context"
	"errors"

	menuDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/menu"
	permissionDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"gorm.io/gorm"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) menu.RepositoryAPI {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) FindByCode(ctx context.Context, code string) (*menu.Node, error) {
	var row menuDatamodel.Menu
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	n := menu.FromDataModel(&row)
	return &n, nil
}

func (r *MenuRepository) FindAll(ctx context.Context) ([]menu.Node, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *MenuRepository) FindAllActive(ctx context.Context) ([]menu.Node, error) {
	return r.find(r.db.WithContext(ctx).Where("is_active = ?", true))
}

func (r *MenuRepository) CountActiveChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&menuDatamodel.Menu{}).
		Where("parent_id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count, err
}

func (r *MenuRepository) CountActiveGrants(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&permissionDatamodel.MenuPermission{}).
		Where("menu_code = ? AND is_active = ?", code, true).
		Count(&count).Error
	return count, err
}

func (r *MenuRepository) Create(ctx context.Context, n *menu.Node) error {
	row := menu.ToDataModel(*n)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	n.ID = row.ID
	return nil
}

func (r *MenuRepository) Save(ctx context.Context, nodes ...menu.Node) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range nodes {
			if err := tx.Save(menu.ToDataModel(n)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MenuRepository) find(q *gorm.DB) ([]menu.Node, error) {
	var rows []menuDatamodel.Menu
	if err := q.Order("menu_level ASC, display_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	nodes := make([]menu.Node, 0, len(rows))
	for i := range rows {
		nodes = append(nodes, menu.FromDataModel(&rows[i]))
	}
	return nodes, nil
}
