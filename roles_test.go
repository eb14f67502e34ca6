package yamdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-yamdb"
)

func TestUserRole_IsAtLeast(t *testing.T) {
	assert.True(t, yamdb.RoleAdmin.IsAtLeast(yamdb.RoleModerator))
	assert.True(t, yamdb.RoleModerator.IsAtLeast(yamdb.RoleModerator))
	assert.False(t, yamdb.RoleUser.IsAtLeast(yamdb.RoleModerator))
	assert.False(t, yamdb.UserRole("ghost").IsAtLeast(yamdb.RoleUser))
	assert.False(t, yamdb.RoleAdmin.IsAtLeast("ghost"))
}

func TestParseRole(t *testing.T) {
	for _, role := range yamdb.GetAllRoles() {
		parsed, ok := yamdb.ParseRole(role.String())
		assert.True(t, ok)
		assert.Equal(t, role, parsed)
	}

	_, ok := yamdb.ParseRole("superuser")
	assert.False(t, ok)
}
