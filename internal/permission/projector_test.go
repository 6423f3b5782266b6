package permission_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
)

func codes(menus []permission.UserMenu) []string {
	out := make([]string, 0, len(menus))
	for _, m := range menus {
		out = append(out, m.Menu.Code)
	}
	return out
}

func effectiveOf(levels map[string]permission.Level) map[string]permission.EffectivePermission {
	out := make(map[string]permission.EffectivePermission, len(levels))
	for code, l := range levels {
		out[code] = permission.EffectivePermission{MenuCode: code, Level: l, Source: permission.TargetUser}
	}
	return out
}

var _ = Describe("ProjectMenusForUser", func() {
	It("should pull in every ancestor category as read-only", func() {
		tree := []menu.Node{
			node(1, "ROOT", 0, 1, 1, menu.NodeCategory),
			node(2, "CHILD", 1, 2, 1, menu.NodeCategory),
			node(3, "LEAF", 2, 3, 1, menu.NodeMenu),
			node(4, "OTHER", 1, 2, 2, menu.NodeMenu),
		}

		result := permission.ProjectMenusForUser(effectiveOf(map[string]permission.Level{"LEAF": permission.LevelAdmin}), tree)

		Expect(codes(result)).To(Equal([]string{"ROOT", "CHILD", "LEAF"}))
		Expect(result[0].Permission).To(Equal(permission.ReadOnly()))
		Expect(result[1].Permission).To(Equal(permission.ReadOnly()))
		Expect(result[0].Inherited).To(BeTrue())
		Expect(result[2].Permission).To(Equal(permission.DisplayFor(permission.LevelAdmin)))
		Expect(result[2].Inherited).To(BeFalse())
	})

	It("should drop grants on menus missing from the tree", func() {
		tree := []menu.Node{node(1, "SALES", 0, 1, 1, menu.NodeMenu)}

		result := permission.ProjectMenusForUser(effectiveOf(map[string]permission.Level{
			"SALES":   permission.LevelRead,
			"REMOVED": permission.LevelAdmin,
		}), tree)

		Expect(codes(result)).To(Equal([]string{"SALES"}))
	})

	It("should skip inactive menus and stop at inactive ancestors", func() {
		tree := []menu.Node{
			node(1, "ROOT", 0, 1, 1, menu.NodeCategory),
			node(2, "HIDDEN", 1, 2, 1, menu.NodeCategory),
			node(3, "LEAF", 2, 3, 1, menu.NodeMenu),
			node(4, "RETIRED", 1, 2, 2, menu.NodeMenu),
		}
		tree[1].IsActive = false
		tree[3].IsActive = false

		result := permission.ProjectMenusForUser(effectiveOf(map[string]permission.Level{
			"LEAF":    permission.LevelRead,
			"RETIRED": permission.LevelRead,
		}), tree)

		Expect(codes(result)).To(Equal([]string{"LEAF"}))
	})

	It("should show an ungranted non-category ancestor without actions", func() {
		tree := []menu.Node{
			node(1, "SALES", 0, 1, 1, menu.NodeCategory),
			node(2, "SALES_ORDER", 1, 2, 1, menu.NodeMenu),
			node(3, "SALES_ORDER_VOID", 2, 3, 1, menu.NodeFunction),
		}

		result := permission.ProjectMenusForUser(effectiveOf(map[string]permission.Level{
			"SALES_ORDER_VOID": permission.LevelWrite,
		}), tree)

		Expect(codes(result)).To(Equal([]string{"SALES", "SALES_ORDER", "SALES_ORDER_VOID"}))
		Expect(result[1].Permission).To(Equal(permission.DisplayPermission{}))
		Expect(result[1].Inherited).To(BeTrue())
	})

	It("should sort by level, display order and name", func() {
		tree := []menu.Node{
			node(1, "B_CAT", 0, 1, 2, menu.NodeCategory),
			node(2, "A_CAT", 0, 1, 2, menu.NodeCategory),
			node(3, "FIRST", 0, 1, 1, menu.NodeMenu),
			node(4, "B_LEAF", 1, 2, 1, menu.NodeMenu),
			node(5, "A_LEAF", 2, 2, 5, menu.NodeMenu),
		}
		tree[0].Name, tree[1].Name = "Beta", "Alpha"

		effective := effectiveOf(map[string]permission.Level{
			"FIRST":  permission.LevelRead,
			"B_LEAF": permission.LevelRead,
			"A_LEAF": permission.LevelRead,
		})

		first := permission.ProjectMenusForUser(effective, tree)
		Expect(codes(first)).To(Equal([]string{"FIRST", "A_CAT", "B_CAT", "B_LEAF", "A_LEAF"}))

		for i := 0; i < 10; i++ {
			Expect(permission.ProjectMenusForUser(effective, tree)).To(Equal(first))
		}
	})

	It("should terminate on a corrupt parent cycle", func() {
		a := node(1, "A", 2, 1, 1, menu.NodeCategory)
		b := node(2, "B", 1, 2, 1, menu.NodeCategory)
		c := node(3, "C", 2, 3, 1, menu.NodeMenu)

		result := permission.ProjectMenusForUser(effectiveOf(map[string]permission.Level{"C": permission.LevelRead}), []menu.Node{a, b, c})
		Expect(codes(result)).To(ConsistOf("A", "B", "C"))
	})
})
