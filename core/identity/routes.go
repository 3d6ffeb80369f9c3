package identity

// Dashboard landing routes.
const (
	RouteStudent    = "/student"
	RouteInstructor = "/instructor"
	RouteAdmin      = "/admin"
	RouteBusiness   = "/entreprise"
	RouteEmployee   = "/employe"
)

// Dashboard maps an identity to its landing route.
//
// Demo accounts are checked first and with broader matching: they are used
// for sales demonstrations and must never land on the wrong dashboard even
// if the backend role assignment is inconsistent. Real accounts rely on the
// authoritative role set.
//
// The function is total and deterministic: it never panics and the same
// identity always yields the same route.
func Dashboard(ident *Identity) string {
	if ident == nil {
		return RouteStudent
	}

	if ident.IsDemo || IsDemoEmail(ident.Email, DemoDomain) {
		inferred := InferDemoRole(ident.Email)
		switch {
		case ident.IsInstructor() || inferred == RoleInstructor:
			return RouteInstructor
		case ident.IsBusinessAdmin() || inferred == RoleBusinessAdmin:
			return RouteBusiness
		case ident.IsAdmin() || inferred == RoleAdmin || inferred == RoleSuperAdmin:
			return RouteAdmin
		case ident.IsEmployee() || inferred == RoleEmployee:
			return RouteEmployee
		default:
			return RouteStudent
		}
	}

	switch {
	case ident.IsAdmin():
		return RouteAdmin
	case ident.IsInstructor():
		return RouteInstructor
	case ident.IsBusinessAdmin():
		return RouteBusiness
	case ident.IsEmployee():
		return RouteEmployee
	default:
		return RouteStudent
	}
}
