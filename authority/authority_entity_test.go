package authority_test

import (
	"testing"

	"waypoint/authority"

	. "github.com/onsi/gomega"
)

func TestPermissions(t *testing.T) {
	RegisterTestingT(t)

	perms := authority.Permissions{"Administrator", "project-manager", "consultant_100"}

	t.Run("role matching should ignore case", func(t *testing.T) {
		Expect(perms.HasRole("administrator")).To(BeTrue())
		Expect(perms.HasRole("admin")).To(BeFalse())
		Expect(authority.Permissions(nil).HasRole("administrator")).To(BeFalse())
	})

	t.Run("any role should match one of the given roles", func(t *testing.T) {
		Expect(perms.HasAnyRole("controller", "PROJECT-MANAGER")).To(BeTrue())
		Expect(perms.HasAnyRole("controller", "intern")).To(BeFalse())
		Expect(perms.HasAnyRole()).To(BeFalse())
	})
}
