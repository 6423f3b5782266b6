package permission_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
)

var _ = Describe("Level", func() {
	levels := []permission.Level{permission.LevelRead, permission.LevelWrite, permission.LevelDelete, permission.LevelAdmin}

	It("should grant exactly when the held level is at least the required one", func() {
		for _, granted := range levels {
			for _, required := range levels {
				Expect(permission.HasLevel(granted, required)).To(Equal(int(granted) >= int(required)),
					"granted=%s required=%s", granted, required)
			}
		}
	})

	It("should let ADMIN satisfy READ but not READ satisfy WRITE", func() {
		Expect(permission.HasLevel(permission.LevelAdmin, permission.LevelRead)).To(BeTrue())
		Expect(permission.HasLevel(permission.LevelRead, permission.LevelWrite)).To(BeFalse())
	})

	It("should never match unknown levels", func() {
		Expect(permission.HasLevel(permission.LevelNone, permission.LevelRead)).To(BeFalse())
		Expect(permission.HasLevel(permission.Level(9), permission.LevelRead)).To(BeFalse())
		Expect(permission.HasLevel(permission.LevelAdmin, permission.LevelNone)).To(BeFalse())
	})

	DescribeTable("ParseLevel",
		func(input string, expected permission.Level) {
			l, err := permission.ParseLevel(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(l).To(Equal(expected))
		},
		Entry("upper case", "WRITE", permission.LevelWrite),
		Entry("lower case", "delete", permission.LevelDelete),
		Entry("ordinal", "4", permission.LevelAdmin),
		Entry("padded", " read ", permission.LevelRead),
	)

	It("should reject unknown level names", func() {
		for _, input := range []string{"", "NONE", "0", "5", "OWNER"} {
			_, err := permission.ParseLevel(input)
			Expect(errors.Is(err, internal.ErrInvalidPermissionLevel)).To(BeTrue(), input)
		}
	})

	It("should expand levels into cumulative display flags", func() {
		Expect(permission.DisplayFor(permission.LevelDelete)).To(Equal(permission.DisplayPermission{
			HasRead: true, HasWrite: true, HasDelete: true, HasAdmin: false,
		}))
		Expect(permission.DisplayFor(permission.LevelNone)).To(Equal(permission.DisplayPermission{}))
		Expect(permission.ReadOnly()).To(Equal(permission.DisplayPermission{HasRead: true}))
	})
})

var _ = Describe("TargetType", func() {
	It("should only parse the three known targets", func() {
		for input, expected := range map[string]permission.TargetType{
			"USER":         permission.TargetUser,
			"role":         permission.TargetRole,
			"Organization": permission.TargetOrganization,
		} {
			tt, err := permission.ParseTargetType(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(tt).To(Equal(expected))
		}

		_, err := permission.ParseTargetType("DEPARTMENT")
		Expect(errors.Is(err, internal.ErrInvalidTargetType)).To(BeTrue())
	})

	It("should round trip through JSON as its name", func() {
		data, err := json.Marshal(struct {
			T permission.TargetType `json:"t"`
		}{permission.TargetOrganization})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"t":"ORGANIZATION"}`))

		var decoded struct {
			T permission.TargetType `json:"t"`
		}
		Expect(json.Unmarshal([]byte(`{"t":"role"}`), &decoded)).To(Succeed())
		Expect(decoded.T).To(Equal(permission.TargetRole))
		Expect(json.Unmarshal([]byte(`{"t":"GROUP"}`), &decoded)).NotTo(Succeed())
	})

	It("should not marshal the zero value", func() {
		_, err := json.Marshal(struct {
			T permission.TargetType `json:"t"`
		}{})
		Expect(err).To(HaveOccurred())
	})
})
