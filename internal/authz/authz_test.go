package authz_test

import (
	"testing"

	"teranga/internal/apierror"
	"teranga/internal/authz"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actor(role authz.Role) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Username: string(role) + "-user", Role: role}
}

func TestManagerTierIsSupersetOfStaff(t *testing.T) {
	staffRoles := []authz.Role{authz.RoleServer, authz.RoleCashier, authz.RoleKitchen}
	for _, perm := range authz.Permissions() {
		for _, r := range staffRoles {
			if authz.Can(actor(r), perm) {
				assert.True(t, authz.Can(actor(authz.RoleManager), perm), "manager lacks %s held by %s", perm, r)
				assert.True(t, authz.Can(actor(authz.RoleAdmin), perm), "admin lacks %s held by %s", perm, r)
			}
		}
		if authz.Can(actor(authz.RoleManager), perm) {
			assert.True(t, authz.Can(actor(authz.RoleAdmin), perm), "admin lacks %s held by manager", perm)
		}
	}
}

func TestAnonymousIsDeniedEverything(t *testing.T) {
	for _, perm := range authz.Permissions() {
		assert.False(t, authz.Can(authz.Anonymous, perm), perm)
	}
	// A role claim without an identity fails closed as well.
	assert.False(t, authz.Can(authz.Actor{Role: authz.RoleAdmin}, authz.PermUserManage))
}

func TestCapabilityChecks(t *testing.T) {
	assert.True(t, actor(authz.RoleAdmin).IsAdmin())
	assert.False(t, actor(authz.RoleManager).IsAdmin())
	assert.True(t, actor(authz.RoleKitchen).IsStaff())
	assert.False(t, authz.Anonymous.IsStaff())

	assert.True(t, actor(authz.RoleCashier).CanValidatePayments())
	assert.True(t, actor(authz.RoleManager).CanValidatePayments())
	assert.False(t, actor(authz.RoleServer).CanValidatePayments())
	assert.False(t, actor(authz.RoleKitchen).CanValidatePayments())
}

func TestRequireReturnsPermissionDenied(t *testing.T) {
	err := authz.Require(actor(authz.RoleServer), authz.PermOrderCancelConfirmed)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrPermissionDenied)

	assert.NoError(t, authz.Require(actor(authz.RoleManager), authz.PermOrderCancelConfirmed))
	assert.False(t, authz.Can(actor(authz.RoleAdmin), authz.Permission("unknown.permission")))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, authz.RoleKitchen, authz.ParseRole("kitchen"))
	assert.Equal(t, authz.RoleAnonymous, authz.ParseRole("superuser"))
}
