package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/user"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// GrantFinder is the read side of the grant store used during resolution.
type GrantFinder interface {
	FindGrants(ctx context.Context, targetType TargetType, targetID string) ([]Grant, error)
}

// EffectivePermission is the winning level for one menu and the target type that supplied it.
type EffectivePermission struct {
	MenuCode string     `json:"menu_code"`
	Level    Level      `json:"level"`
	Source   TargetType `json:"source"`
}

type target struct {
	kind TargetType
	id   string
}

type Resolver struct {
	grants GrantFinder
	now    func() time.Time
}

func NewResolver(grants GrantFinder) *Resolver {
	return &Resolver{grants: grants, now: time.Now}
}

// Resolve merges the user's direct, role and organization grants into one
// level per menu code. The highest level wins regardless of where it came from.
// Activity and expiry are checked here, whatever the store returned.
func (r *Resolver) Resolve(ctx context.Context, u *user.User) (map[string]EffectivePermission, error) {
	targets := []target{{kind: TargetUser, id: u.ID}}
	for _, role := range lo.Uniq(u.Roles) {
		targets = append(targets, target{kind: TargetRole, id: role})
	}
	if u.HasOrganization() {
		targets = append(targets, target{kind: TargetOrganization, id: *u.OrganizationID})
	}

	results := make([][]Grant, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			grants, err := r.grants.FindGrants(gctx, t.kind, t.id)
			if err != nil {
				return fmt.Errorf("fetch %s grants for %s: %w", t.kind, t.id, err)
			}
			results[i] = grants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := r.now()
	effective := lo.Filter(lo.Flatten(results), func(grant Grant, _ int) bool {
		return grant.EffectiveAt(now)
	})

	byMenu := lo.GroupBy(effective, func(grant Grant) string { return grant.MenuCode })
	return lo.MapValues(byMenu, func(group []Grant, code string) EffectivePermission {
		best := lo.MaxBy(group, func(a, b Grant) bool { return a.Level > b.Level })
		return EffectivePermission{MenuCode: code, Level: best.Level, Source: best.TargetType}
	}), nil
}

// Summary flattens a resolution to menu code -> level.
func Summary(effective map[string]EffectivePermission) map[string]Level {
	return lo.MapValues(effective, func(p EffectivePermission, _ string) Level { return p.Level })
}
