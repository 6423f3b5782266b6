package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/pos-backoffice/internal/core/events"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/user"
	"github.com/samber/lo"
)

// Invalidator applies the cache invalidation rules for grant and menu changes:
//
//	USER grant          -> that user's entries
//	ROLE grant          -> every user's entries
//	ORGANIZATION grant  -> entries of every member of the organization
//	menu create/update/delete -> hierarchy and every user's entries
type Invalidator struct {
	cache  *Cache
	users  UserDirectory
	logger *slog.Logger
}

func NewInvalidator(cache *Cache, users UserDirectory, logger *slog.Logger) *Invalidator {
	return &Invalidator{cache: cache, users: users, logger: logger}
}

// Register subscribes inline so invalidation finishes before a command returns.
func (i *Invalidator) Register(bus *events.EventBus) {
	bus.Subscribe(EventGranted, i.HandleGrantChanged)
	bus.Subscribe(EventRevoked, i.HandleGrantChanged)
	bus.Subscribe(menu.EventCreated, i.HandleMenuChanged)
	bus.Subscribe(menu.EventUpdated, i.HandleMenuChanged)
	bus.Subscribe(menu.EventDeleted, i.HandleMenuChanged)
}

func (i *Invalidator) HandleGrantChanged(ctx context.Context, evt events.Event) error {
	changed, ok := evt.(GrantChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", evt, evt.EventType())
	}

	switch changed.TargetType {
	case TargetUser:
		u, err := i.users.FindUserByID(ctx, changed.TargetID)
		if err != nil || u == nil {
			i.logger.Warn("grant target user not resolvable, invalidating all users",
				"user_id", changed.TargetID, "error", err)
			return i.cache.InvalidateAllUsers(ctx)
		}
		return i.cache.InvalidateUsers(ctx, u.Username)

	case TargetRole:
		return i.cache.InvalidateAllUsers(ctx)

	case TargetOrganization:
		members, err := i.users.FindUsersByOrganization(ctx, changed.TargetID)
		if err != nil {
			i.logger.Warn("organization members not resolvable, invalidating all users",
				"organization_id", changed.TargetID, "error", err)
			return i.cache.InvalidateAllUsers(ctx)
		}
		usernames := lo.Map(members, func(u *user.User, _ int) string { return u.Username })
		return i.cache.InvalidateUsers(ctx, usernames...)
	}

	return fmt.Errorf("grant event with unknown target type %d", changed.TargetType)
}

func (i *Invalidator) HandleMenuChanged(ctx context.Context, _ events.Event) error {
	return errors.Join(
		i.cache.InvalidateHierarchy(ctx),
		i.cache.InvalidateAllUsers(ctx),
	)
}
