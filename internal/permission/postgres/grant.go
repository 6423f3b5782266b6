package postgres

import (
	"context"
	"time"

	permissionDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"gorm.io/gorm"
)

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) permission.RepositoryAPI {
	return &GrantRepository{db: db}
}

// FindGrants returns the full history for a target, inactive rows included.
func (r *GrantRepository) FindGrants(ctx context.Context, targetType permission.TargetType, targetID string) ([]permission.Grant, error) {
	var rows []permissionDatamodel.MenuPermission
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType.String(), targetID).
		Order("menu_code ASC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toGrants(rows)
}

func (r *GrantRepository) FindActiveGrants(ctx context.Context) ([]permission.Grant, error) {
	var rows []permissionDatamodel.MenuPermission
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("target_type ASC, target_id ASC, menu_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toGrants(rows)
}

func (r *GrantRepository) FindActiveGrantsFor(ctx context.Context, menuCode string, targetType permission.TargetType, targetID string) ([]permission.Grant, error) {
	var rows []permissionDatamodel.MenuPermission
	err := r.db.WithContext(ctx).
		Where("menu_code = ? AND target_type = ? AND target_id = ? AND is_active = ?",
			menuCode, targetType.String(), targetID, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toGrants(rows)
}

func (r *GrantRepository) SaveGrant(ctx context.Context, g permission.Grant) (permission.Grant, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deactivate(tx, g.MenuCode, g.TargetType, g.TargetID, g.CreatedAt).Error; err != nil {
			return err
		}
		return tx.Create(permission.ToDataModel(g)).Error
	})
	if err != nil {
		return permission.Grant{}, err
	}
	return g, nil
}

func (r *GrantRepository) RevokeGrant(ctx context.Context, menuCode string, targetType permission.TargetType, targetID string, at time.Time) (int64, error) {
	result := deactivate(r.db.WithContext(ctx), menuCode, targetType, targetID, at)
	return result.RowsAffected, result.Error
}

func deactivate(db *gorm.DB, menuCode string, targetType permission.TargetType, targetID string, at time.Time) *gorm.DB {
	return db.Model(&permissionDatamodel.MenuPermission{}).
		Where("menu_code = ? AND target_type = ? AND target_id = ? AND is_active = ?",
			menuCode, targetType.String(), targetID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": at,
		})
}

func toGrants(rows []permissionDatamodel.MenuPermission) ([]permission.Grant, error) {
	grants := make([]permission.Grant, 0, len(rows))
	for i := range rows {
		g, err := permission.FromDataModel(&rows[i])
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, nil
}
