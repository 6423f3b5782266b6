package permission

import (
	"cmp"
	"slices"

	"github.com/frahmantamala/pos-backoffice/internal/menu"
)

// UserMenu is one row of a user's navigable menu. Inherited rows are
// ancestors pulled in only to keep the tree connected.
type UserMenu struct {
	Menu       menu.Node         `json:"menu"`
	Permission DisplayPermission `json:"permission"`
	Level      Level             `json:"level"`
	Inherited  bool              `json:"inherited"`
}

// ProjectMenusForUser returns every active menu the user holds a grant on plus
// all of their active ancestors, ordered by (level, display order, name).
// Categories are always read-only. Grants on unknown or inactive menus are ignored.
func ProjectMenusForUser(effective map[string]EffectivePermission, tree []menu.Node) []UserMenu {
	byCode := make(map[string]menu.Node, len(tree))
	byID := make(map[int64]menu.Node, len(tree))
	for _, n := range tree {
		if !n.IsActive {
			continue
		}
		byCode[n.Code] = n
		byID[n.ID] = n
	}

	included := make(map[int64]menu.Node)
	var seeds []menu.Node
	for code := range effective {
		if n, ok := byCode[code]; ok {
			included[n.ID] = n
			seeds = append(seeds, n)
		}
	}

	for _, seed := range seeds {
		walked := map[int64]bool{seed.ID: true}
		current := seed
		for current.ParentID != nil {
			parent, ok := byID[*current.ParentID]
			if !ok || walked[parent.ID] {
				break
			}
			walked[parent.ID] = true
			if _, done := included[parent.ID]; done {
				// its own ancestors are already being walked
				break
			}
			included[parent.ID] = parent
			current = parent
		}
	}

	result := make([]UserMenu, 0, len(included))
	for _, n := range included {
		result = append(result, project(n, effective))
	}

	slices.SortFunc(result, func(a, b UserMenu) int {
		return cmp.Or(
			cmp.Compare(a.Menu.Level, b.Menu.Level),
			cmp.Compare(a.Menu.DisplayOrder, b.Menu.DisplayOrder),
			cmp.Compare(a.Menu.Name, b.Menu.Name),
			cmp.Compare(a.Menu.Code, b.Menu.Code),
		)
	})
	return result
}

func project(n menu.Node, effective map[string]EffectivePermission) UserMenu {
	granted, hasGrant := effective[n.Code]
	switch {
	case n.IsCategory():
		return UserMenu{Menu: n, Permission: ReadOnly(), Level: LevelRead, Inherited: !hasGrant}
	case hasGrant:
		return UserMenu{Menu: n, Permission: DisplayFor(granted.Level), Level: granted.Level}
	default:
		return UserMenu{Menu: n, Permission: DisplayFor(LevelNone), Level: LevelNone, Inherited: true}
	}
}
