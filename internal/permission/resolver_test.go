package permission_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/user"
)

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		store    *fakeGrantStore
		resolver *permission.Resolver
		alice    *user.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeGrantStore{}
		resolver = permission.NewResolver(store)
		alice = &user.User{
			ID:             "u-1",
			Username:       "alice",
			Roles:          []string{"CASHIER", "SUPERVISOR"},
			OrganizationID: strPtr("org-store-1"),
			IsActive:       true,
		}
	})

	It("should pick the highest level across sources", func() {
		store.add(activeGrant("SALES_ORDER", permission.TargetUser, "u-1", permission.LevelWrite))
		store.add(activeGrant("SALES_ORDER", permission.TargetRole, "SUPERVISOR", permission.LevelAdmin))
		store.add(activeGrant("SALES_ORDER", permission.TargetOrganization, "org-store-1", permission.LevelRead))

		effective, err := resolver.Resolve(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(effective).To(HaveLen(1))
		Expect(effective["SALES_ORDER"].Level).To(Equal(permission.LevelAdmin))
		Expect(effective["SALES_ORDER"].Source).To(Equal(permission.TargetRole))
	})

	It("should union menus from every source", func() {
		store.add(activeGrant("SALES_ORDER", permission.TargetUser, "u-1", permission.LevelRead))
		store.add(activeGrant("INVENTORY", permission.TargetRole, "CASHIER", permission.LevelWrite))
		store.add(activeGrant("REPORT_DAILY", permission.TargetOrganization, "org-store-1", permission.LevelRead))
		store.add(activeGrant("SYSTEM_USER", permission.TargetRole, "MANAGER", permission.LevelAdmin))

		effective, err := resolver.Resolve(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(effective).To(HaveKey("SALES_ORDER"))
		Expect(effective).To(HaveKey("INVENTORY"))
		Expect(effective).To(HaveKey("REPORT_DAILY"))
		Expect(effective).NotTo(HaveKey("SYSTEM_USER"))
	})

	It("should ignore inactive grants even when they are the only ones", func() {
		g := activeGrant("SALES_ORDER", permission.TargetUser, "u-1", permission.LevelAdmin)
		revoked, _ := g.Revoke("admin", time.Now())
		store.add(revoked)

		effective, err := resolver.Resolve(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(effective).To(BeEmpty())
	})

	It("should ignore expired grants", func() {
		g := activeGrant("SALES_ORDER", permission.TargetRole, "CASHIER", permission.LevelWrite)
		past := time.Now().Add(-time.Minute)
		g.ExpiresAt = &past
		store.add(g)

		effective, err := resolver.Resolve(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(effective).To(BeEmpty())
	})

	It("should only consult direct grants for a user without roles or organization", func() {
		loner := &user.User{ID: "u-2", Username: "bob", IsActive: true}
		store.add(activeGrant("SALES_ORDER", permission.TargetUser, "u-2", permission.LevelRead))

		effective, err := resolver.Resolve(ctx, loner)
		Expect(err).NotTo(HaveOccurred())
		Expect(effective).To(HaveKey("SALES_ORDER"))
		Expect(store.findCalls.Load()).To(Equal(int64(1)))
	})

	It("should fail when the grant store fails", func() {
		store.findErr = errors.New("db down")

		_, err := resolver.Resolve(ctx, alice)
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})

	It("should summarise to menu code and level", func() {
		store.add(activeGrant("SALES_ORDER", permission.TargetUser, "u-1", permission.LevelDelete))

		effective, err := resolver.Resolve(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(permission.Summary(effective)).To(Equal(map[string]permission.Level{"SALES_ORDER": permission.LevelDelete}))
	})
})
