package permission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/frahmantamala/pos-backoffice/internal/user"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// RepositoryAPI is the grant store.
type RepositoryAPI interface {
	GrantFinder
	FindActiveGrants(ctx context.Context) ([]Grant, error)
	FindActiveGrantsFor(ctx context.Context, menuCode string, targetType TargetType, targetID string) ([]Grant, error)
	// SaveGrant deactivates any active grant for the same menu and target and
	// inserts g, atomically.
	SaveGrant(ctx context.Context, g Grant) (Grant, error)
	RevokeGrant(ctx context.Context, menuCode string, targetType TargetType, targetID string, at time.Time) (int64, error)
}

type UserDirectory interface {
	FindUserByUsername(ctx context.Context, username string) (*user.User, error)
	FindUserByID(ctx context.Context, id string) (*user.User, error)
	FindUsersByOrganization(ctx context.Context, organizationID string) ([]*user.User, error)
	RoleExists(ctx context.Context, name string) (bool, error)
	OrganizationExists(ctx context.Context, id string) (bool, error)
}

type MenuDirectory interface {
	FindMenuByCode(ctx context.Context, code string) (*menu.Node, error)
	FindAllActiveMenus(ctx context.Context) ([]menu.Node, error)
}

// Source labels for authorization metrics.
const (
	sourceCache    = "cache"
	sourceResolver = "resolver"
)

// resolveTimeout bounds a shared resolution, which outlives any single caller.
const resolveTimeout = 10 * time.Second

// resolution carries the cache epoch read before any source lookup, so its
// results are never written back across an invalidation.
type resolution struct {
	user      *user.User
	effective map[string]EffectivePermission
	epoch     uint64
}

// Service is the permission engine: the authorization gate, the user menu
// projection and the grant commands.
type Service struct {
	repo      RepositoryAPI
	users     UserDirectory
	menus     MenuDirectory
	resolver  *Resolver
	cache     *Cache
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    *slog.Logger
	inflight  singleflight.Group
	now       func() time.Time
}

func NewService(repo RepositoryAPI, users UserDirectory, menus MenuDirectory, cache *Cache, publisher events.Publisher, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		menus:     menus,
		resolver:  NewResolver(repo),
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// HasPermission reports whether username holds at least required on menuCode.
// It never returns an error: any lookup failure denies.
func (s *Service) HasPermission(ctx context.Context, username, menuCode string, required Level) bool {
	if username == "" || menuCode == "" || !required.Valid() {
		s.metrics.RecordAuthorization(false, sourceResolver)
		return false
	}

	if summary, ok := s.cache.GetSummary(ctx, username); ok {
		if granted, found := summary[menuCode]; found {
			allowed := HasLevel(granted, required)
			s.metrics.RecordAuthorization(allowed, sourceCache)
			return allowed
		}
	}

	allowed := s.checkFromSource(ctx, username, menuCode, required)
	s.metrics.RecordAuthorization(allowed, sourceResolver)
	if !allowed {
		s.logger.Warn("permission denied", "username", username, "menu", menuCode, "required", required.String())
	}
	return allowed
}

func (s *Service) checkFromSource(ctx context.Context, username, menuCode string, required Level) bool {
	res, err := s.resolve(ctx, username)
	if err != nil {
		s.logger.Warn("permission check failed closed", "username", username, "menu", menuCode, "error", err)
		return false
	}
	if res == nil {
		return false
	}

	node, err := s.menus.FindMenuByCode(ctx, menuCode)
	if err != nil {
		s.logger.Warn("permission check failed closed", "username", username, "menu", menuCode, "error", err)
		return false
	}
	if node == nil {
		return false
	}

	summary := Summary(res.effective)
	if _, ok := summary[menuCode]; !ok {
		summary[menuCode] = LevelNone
	}
	s.cache.SetSummary(ctx, username, summary, res.epoch)

	return HasLevel(summary[menuCode], required)
}

// GetUserMenus returns the user's navigable menu tree, from cache when possible.
func (s *Service) GetUserMenus(ctx context.Context, username string) ([]UserMenu, error) {
	if menus, ok := s.cache.GetMenus(ctx, username); ok {
		return menus, nil
	}

	res, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, internal.ErrUserNotFound
	}

	tree, err := s.hierarchy(ctx, res.epoch)
	if err != nil {
		return nil, err
	}

	menus := ProjectMenusForUser(res.effective, tree)
	s.cache.SetMenus(ctx, username, menus, res.epoch)
	s.cache.SetSummary(ctx, username, Summary(res.effective), res.epoch)
	return menus, nil
}

// GetPermissionSummary returns menu code -> level for every menu the user holds a grant on.
func (s *Service) GetPermissionSummary(ctx context.Context, username string) (map[string]Level, error) {
	if summary, ok := s.cache.GetSummary(ctx, username); ok {
		return lo.PickBy(summary, func(_ string, l Level) bool { return l.Valid() }), nil
	}

	res, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, internal.ErrUserNotFound
	}

	summary := Summary(res.effective)
	s.cache.SetSummary(ctx, username, summary, res.epoch)
	return summary, nil
}

// GrantPermission records a grant, replacing any active grant for the same
// menu and target, and runs cache invalidation before returning.
func (s *Service) GrantPermission(ctx context.Context, cmd GrantCommand) (*Grant, error) {
	if err := s.validateGrant(ctx, cmd); err != nil {
		return nil, err
	}

	g, evts := NewGrant(cmd, s.now())
	saved, err := s.repo.SaveGrant(ctx, g)
	if err != nil {
		s.logger.Error("failed to save grant", "menu", cmd.MenuCode, "target_type", cmd.TargetType.String(), "target_id", cmd.TargetID, "error", err)
		return nil, fmt.Errorf("save grant: %w", err)
	}

	if err := s.dispatch(ctx, evts); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted",
		"grant_id", saved.ID,
		"menu", saved.MenuCode,
		"target_type", saved.TargetType.String(),
		"target_id", saved.TargetID,
		"level", saved.Level.String(),
		"granted_by", saved.GrantedBy)
	return &saved, nil
}

// RevokePermission deactivates the active grant for menu and target.
func (s *Service) RevokePermission(ctx context.Context, menuCode string, targetType TargetType, targetID, revokedBy string) error {
	if !targetType.Valid() {
		return internal.ErrInvalidTargetType
	}

	active, err := s.repo.FindActiveGrantsFor(ctx, menuCode, targetType, targetID)
	if err != nil {
		return fmt.Errorf("find grants to revoke: %w", err)
	}
	if len(active) == 0 {
		return internal.ErrGrantNotFound.WithDetails(map[string]string{
			"menu_code":   menuCode,
			"target_type": targetType.String(),
			"target_id":   targetID,
		})
	}

	now := s.now()
	var evts []events.Event
	for _, g := range active {
		_, revokeEvts := g.Revoke(revokedBy, now)
		evts = append(evts, revokeEvts...)
	}

	if _, err := s.repo.RevokeGrant(ctx, menuCode, targetType, targetID, now); err != nil {
		s.logger.Error("failed to revoke grant", "menu", menuCode, "target_type", targetType.String(), "target_id", targetID, "error", err)
		return fmt.Errorf("revoke grant: %w", err)
	}

	if err := s.dispatch(ctx, evts); err != nil {
		return err
	}

	s.logger.Info("permission revoked",
		"menu", menuCode,
		"target_type", targetType.String(),
		"target_id", targetID,
		"revoked_by", revokedBy)
	return nil
}

func (s *Service) ListGrants(ctx context.Context, targetType TargetType, targetID string) ([]Grant, error) {
	if !targetType.Valid() {
		return nil, internal.ErrInvalidTargetType
	}
	grants, err := s.repo.FindGrants(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}

func (s *Service) ListActiveGrants(ctx context.Context) ([]Grant, error) {
	grants, err := s.repo.FindActiveGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active grants: %w", err)
	}
	now := s.now()
	return lo.Filter(grants, func(g Grant, _ int) bool { return g.EffectiveAt(now) }), nil
}

func (s *Service) RefreshUserCache(ctx context.Context, username string) error {
	if err := s.cache.InvalidateUsers(ctx, username); err != nil {
		return internal.ErrCacheUnavailable.WithCause(err)
	}
	s.logger.Info("user permission cache refreshed", "username", username)
	return nil
}

func (s *Service) RefreshAllCaches(ctx context.Context) error {
	if err := s.invalidateEverything(ctx); err != nil {
		return internal.ErrCacheUnavailable.WithCause(err)
	}
	s.logger.Info("all permission caches refreshed")
	return nil
}

// RefreshMenuCache drops the hierarchy and, since any menu can appear as an
// ancestor in a projection, every per-user entry.
func (s *Service) RefreshMenuCache(ctx context.Context, menuCode string) error {
	if err := s.invalidateEverything(ctx); err != nil {
		return internal.ErrCacheUnavailable.WithCause(err)
	}
	s.logger.Info("menu cache refreshed", "menu", menuCode)
	return nil
}

func (s *Service) invalidateEverything(ctx context.Context) error {
	hierarchyErr := s.cache.InvalidateHierarchy(ctx)
	if err := s.cache.InvalidateAllUsers(ctx); err != nil {
		return err
	}
	return hierarchyErr
}

// resolve returns nil when the user is unknown or inactive. Concurrent calls
// for the same username share one resolution; a caller that observed a newer
// epoch than the shared one resolves again.
func (s *Service) resolve(ctx context.Context, username string) (*resolution, error) {
	observed := s.cache.Epoch()

	res, err := s.resolveShared(ctx, username)
	if err == nil && res != nil && res.epoch < observed {
		s.inflight.Forget(username)
		res, err = s.resolveShared(ctx, username)
	}
	if err != nil || res == nil {
		return nil, err
	}
	// callers mutate the map they get back
	return &resolution{user: res.user, effective: lo.Assign(res.effective), epoch: res.epoch}, nil
}

// resolveShared runs the lookup detached from any one caller's cancellation.
// Each caller still stops waiting when its own context is done.
func (s *Service) resolveShared(ctx context.Context, username string) (*resolution, error) {
	ch := s.inflight.DoChan(username, func() (interface{}, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()

		epoch := s.cache.Epoch()
		u, err := s.users.FindUserByUsername(workCtx, username)
		if err != nil {
			return nil, err
		}
		if u == nil || !u.IsActive {
			return (*resolution)(nil), nil
		}

		start := time.Now()
		effective, err := s.resolver.Resolve(workCtx, u)
		s.metrics.ObserveResolution(time.Since(start))
		if err != nil {
			return nil, err
		}
		return &resolution{user: u, effective: effective, epoch: epoch}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*resolution), nil
	}
}

func (s *Service) hierarchy(ctx context.Context, epoch uint64) ([]menu.Node, error) {
	if nodes, ok := s.cache.GetHierarchy(ctx); ok {
		return nodes, nil
	}
	nodes, err := s.menus.FindAllActiveMenus(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetHierarchy(ctx, nodes, epoch)
	return nodes, nil
}

func (s *Service) validateGrant(ctx context.Context, cmd GrantCommand) error {
	if !cmd.Level.Valid() {
		return internal.ErrInvalidPermissionLevel
	}
	if !cmd.TargetType.Valid() {
		return internal.ErrInvalidTargetType
	}
	if cmd.TargetID == "" {
		return internal.ErrInvalidGrantTarget
	}

	node, err := s.menus.FindMenuByCode(ctx, cmd.MenuCode)
	if err != nil {
		return fmt.Errorf("look up menu: %w", err)
	}
	if node == nil {
		return internal.ErrMenuNotFound.WithDetails(map[string]string{"menu_code": cmd.MenuCode})
	}
	if node.IsCategory() {
		return internal.ErrCategoryNotGrantable.WithDetails(map[string]string{"menu_code": cmd.MenuCode})
	}

	var exists bool
	switch cmd.TargetType {
	case TargetUser:
		u, lookupErr := s.users.FindUserByID(ctx, cmd.TargetID)
		exists, err = u != nil && u.IsActive, lookupErr
	case TargetRole:
		exists, err = s.users.RoleExists(ctx, cmd.TargetID)
	case TargetOrganization:
		exists, err = s.users.OrganizationExists(ctx, cmd.TargetID)
	}
	if err != nil {
		return fmt.Errorf("look up grant target: %w", err)
	}
	if !exists {
		return internal.ErrInvalidGrantTarget.WithDetails(map[string]string{
			"target_type": cmd.TargetType.String(),
			"target_id":   cmd.TargetID,
		})
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, evts []events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishAll(ctx, evts); err != nil {
		s.logger.Error("grant change saved but cache invalidation failed", "error", err)
		return internal.ErrCacheUnavailable.WithCause(err)
	}
	return nil
}
