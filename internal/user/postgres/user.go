package postgres

import (
	"context"
	"database/sql"
	"errors"

	userDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-backoffice/internal/user"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, name, email, organization_id, is_active, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

// FindUserByUsername only matches active users.
func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND is_active = true`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.withRoles(ctx, &row)
}

// FindUserByID matches inactive users too; cache invalidation needs their username.
func (r *UserRepository) FindUserByID(ctx context.Context, id string) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.withRoles(ctx, &row)
}

// FindUsersByOrganization returns members without their roles.
func (r *UserRepository) FindUsersByOrganization(ctx context.Context, organizationID string) ([]*user.User, error) {
	var rows []userDatamodel.User
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE organization_id = $1 ORDER BY username`, organizationID)
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		users = append(users, user.FromDataModel(&rows[i], nil))
	}
	return users, nil
}

func (r *UserRepository) RoleExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1 AND is_active = true)`, name)
	return exists, err
}

func (r *UserRepository) OrganizationExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM organizations WHERE id = $1 AND is_active = true)`, id)
	return exists, err
}

func (r *UserRepository) withRoles(ctx context.Context, row *userDatamodel.User) (*user.User, error) {
	var roles []string
	err := r.db.SelectContext(ctx, &roles,
		`SELECT ur.role_name FROM user_roles ur
		 JOIN roles ro ON ro.name = ur.role_name
		 WHERE ur.user_id = $1 AND ro.is_active = true
		 ORDER BY ur.role_name`, row.ID)
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(row, roles), nil
}
