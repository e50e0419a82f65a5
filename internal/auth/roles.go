package auth

// Roles form a closed enum. SUPERADMIN is the deliberate escape hatch: it
// passes every role, permission and ownership gate. That bypass lives in
// exactly one place (IsSuper checks below) so it stays visible and testable
// instead of being an accident of list-membership logic.
const (
	RoleCustomer     = "CUSTOMER"
	RolePractitioner = "PRACTITIONER"
	RoleAdmin        = "ADMIN"
	RoleSuperAdmin   = "SUPERADMIN"
)

// Permission tokens form a closed set; new route groups reuse these instead
// of inventing per-route strings.
const (
	PermServicesManage     = "services.manage"
	PermAppointmentsManage = "appointments.manage"
	PermProductsManage     = "products.manage"
	PermUsersManage        = "users.manage"
	PermReviewsModerate    = "reviews.moderate"
	PermAnalyticsView      = "analytics.view"
)

// ValidRole reports whether r is one of the closed role enum values.
func ValidRole(r string) bool {
	switch r {
	case RoleCustomer, RolePractitioner, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsSuper reports whether the role is the top role that bypasses all gates.
func IsSuper(role string) bool { return role == RoleSuperAdmin }

// DefaultPermissions returns the permission set granted to a role at
// registration. The set is copied onto the credential record, so later
// grants or revocations by an admin survive independently of the defaults.
func DefaultPermissions(role string) []string {
	switch role {
	case RolePractitioner:
		return []string{PermServicesManage, PermAppointmentsManage}
	case RoleAdmin:
		return []string{
			PermServicesManage, PermAppointmentsManage, PermProductsManage,
			PermUsersManage, PermReviewsModerate, PermAnalyticsView,
		}
	case RoleSuperAdmin:
		// The top role does not rely on its permission list, but carrying the
		// full set keeps introspection endpoints honest.
		return []string{
			PermServicesManage, PermAppointmentsManage, PermProductsManage,
			PermUsersManage, PermReviewsModerate, PermAnalyticsView,
		}
	default:
		return []string{}
	}
}
