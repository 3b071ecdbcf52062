package authz

// Permission names a guarded operation.
type Permission string

const (
	PermUserManage           Permission = "user.manage"
	PermTableManage          Permission = "table.manage"
	PermSessionClose         Permission = "session.close"
	PermMenuManage           Permission = "menu.manage"
	PermOrderCreate          Permission = "order.create"
	PermOrderView            Permission = "order.view"
	PermOrderConfirm         Permission = "order.confirm"
	PermOrderPrepare         Permission = "order.prepare"
	PermOrderComplete        Permission = "order.complete"
	PermOrderCancel          Permission = "order.cancel"
	PermOrderCancelConfirmed Permission = "order.cancel_confirmed"
	PermPaymentValidate      Permission = "payment.validate"
	PermStockView            Permission = "stock.view"
	PermStockAdjust          Permission = "stock.adjust"
	PermStockForceAdjust     Permission = "stock.force_adjust"
	PermIngredientManage     Permission = "ingredient.manage"
	PermRequestCreate        Permission = "request.create"
	PermRequestReview        Permission = "request.review"
	PermRequestFulfill       Permission = "request.fulfill"
	PermJobsManage           Permission = "jobs.manage"
)

var managerTier = []Role{RoleManager, RoleAdmin}

// staff lists the minimal staff roles for a permission; the manager tier is
// always appended so managers hold every staff permission.
func staff(roles ...Role) []Role {
	return append(roles, managerTier...)
}

// policy maps every permission to the roles allowed to use it.
var policy = map[Permission][]Role{
	PermUserManage:           {RoleAdmin},
	PermStockForceAdjust:     {RoleAdmin},
	PermJobsManage:           {RoleAdmin},
	PermTableManage:          staff(),
	PermMenuManage:           staff(),
	PermIngredientManage:     staff(),
	PermStockAdjust:          staff(),
	PermRequestReview:        staff(),
	PermRequestFulfill:       staff(),
	PermOrderCancelConfirmed: staff(),
	PermSessionClose:         staff(RoleServer, RoleCashier),
	PermOrderCreate:          staff(RoleServer, RoleCashier, RoleKitchen),
	PermOrderView:            staff(RoleServer, RoleCashier, RoleKitchen),
	PermOrderConfirm:         staff(RoleServer, RoleCashier, RoleKitchen),
	PermOrderPrepare:         staff(RoleKitchen),
	PermOrderComplete:        staff(RoleServer, RoleCashier),
	PermOrderCancel:          staff(RoleServer, RoleCashier),
	PermPaymentValidate:      staff(RoleCashier),
	PermStockView:            staff(RoleServer, RoleCashier, RoleKitchen),
	PermRequestCreate:        staff(RoleServer, RoleCashier, RoleKitchen),
}

// Can reports whether a holds perm. Unknown permissions are denied.
func Can(a Actor, perm Permission) bool {
	roles, ok := policy[perm]
	if !ok {
		return false
	}
	return a.HasRole(roles...)
}

// RolesFor returns the roles allowed to use perm.
func RolesFor(perm Permission) []Role {
	return append([]Role(nil), policy[perm]...)
}

// Permissions returns every permission known to the policy.
func Permissions() []Permission {
	out := make([]Permission, 0, len(policy))
	for p := range policy {
		out = append(out, p)
	}
	return out
}
