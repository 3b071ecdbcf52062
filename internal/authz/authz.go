// Package authz resolves what a caller may do. The caller is an explicit
// Actor value handed to every service operation; there is no ambient
// "current user".
package authz

import (
	"github.com/google/uuid"

	"teranga/internal/apierror"
)

// Role is the role claim carried by a staff token.
type Role string

const (
	RoleAnonymous Role = ""
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleCashier   Role = "cashier"
	RoleServer    Role = "server"
	RoleKitchen   Role = "kitchen"
)

// ParseRole returns the role for s, or RoleAnonymous when s is unknown.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleCashier, RoleServer, RoleKitchen:
		return r
	}
	return RoleAnonymous
}

// Actor is the resolved identity behind a request.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Name     string
	Role     Role
}

// Anonymous is the actor used when identity resolution fails or is absent.
var Anonymous = Actor{}

// IsAuthenticated reports whether the actor has a known role.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != uuid.Nil && a.Role != RoleAnonymous
}

// Label identifies the actor in ledgers and status logs.
func (a Actor) Label() string {
	if !a.IsAuthenticated() {
		return "guest"
	}
	return a.Username
}

// HasRole reports whether the actor holds exactly one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	if !a.IsAuthenticated() {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.HasRole(RoleAdmin) }

// IsManager covers the whole manager tier (manager and admin).
func (a Actor) IsManager() bool { return a.HasRole(managerTier...) }

// IsStaff is true for any authenticated back-office user.
func (a Actor) IsStaff() bool {
	return a.HasRole(RoleAdmin, RoleManager, RoleCashier, RoleServer, RoleKitchen)
}

func (a Actor) CanValidatePayments() bool { return Can(a, PermPaymentValidate) }

// Require returns a PermissionDenied error unless a holds perm.
func Require(a Actor, perm Permission) error {
	if Can(a, perm) {
		return nil
	}
	if !a.IsAuthenticated() {
		return apierror.E(apierror.KindPermissionDenied, "authentication required for %s", perm)
	}
	return apierror.E(apierror.KindPermissionDenied, "role %q may not perform %s", a.Role, perm)
}
