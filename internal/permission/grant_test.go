package permission_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/pos-backoffice/internal/permission"
)

var _ = Describe("Grant", func() {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cmd := permission.GrantCommand{
		MenuCode:   "SALES_ORDER",
		TargetType: permission.TargetRole,
		TargetID:   "CASHIER",
		Level:      permission.LevelWrite,
		GrantedBy:  "admin",
	}

	It("should return the new grant and a granted event", func() {
		g, evts := permission.NewGrant(cmd, now)

		Expect(g.ID).NotTo(BeEmpty())
		Expect(g.IsActive).To(BeTrue())
		Expect(g.CreatedAt).To(Equal(now))
		Expect(evts).To(HaveLen(1))

		evt, ok := evts[0].(permission.GrantChangedEvent)
		Expect(ok).To(BeTrue())
		Expect(evt.EventType()).To(Equal(permission.EventGranted))
		Expect(evt.TargetType).To(Equal(permission.TargetRole))
		Expect(evt.TargetID).To(Equal("CASHIER"))
	})

	It("should revoke without touching the original value", func() {
		g, _ := permission.NewGrant(cmd, now)
		revoked, evts := g.Revoke("auditor", now.Add(time.Hour))

		Expect(g.IsActive).To(BeTrue())
		Expect(revoked.IsActive).To(BeFalse())
		Expect(revoked.UpdatedAt).To(Equal(now.Add(time.Hour)))
		Expect(evts[0].EventType()).To(Equal(permission.EventRevoked))
		Expect(evts[0].Payload()).To(HaveKeyWithValue("actor", "auditor"))
	})

	It("should stop counting once expired or inactive", func() {
		expires := now.Add(time.Hour)
		withExpiry := cmd
		withExpiry.ExpiresAt = &expires
		g, _ := permission.NewGrant(withExpiry, now)

		Expect(g.EffectiveAt(now)).To(BeTrue())
		Expect(g.EffectiveAt(expires)).To(BeFalse())

		revoked, _ := g.Revoke("admin", now)
		Expect(revoked.EffectiveAt(now)).To(BeFalse())
	})

	It("should map to and from the row model", func() {
		g, _ := permission.NewGrant(cmd, now)
		row := permission.ToDataModel(g)
		Expect(row.TargetType).To(Equal("ROLE"))
		Expect(row.Level).To(Equal(2))

		back, err := permission.FromDataModel(row)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(g))
	})
})
