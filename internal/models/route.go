package models

// RouteAccessRequest describes a single navigation attempt. It is evaluated
// once against the current session and never persisted.
type RouteAccessRequest struct {
	Path string
	// RequiredRoles is the set of roles allowed on the route. Empty means
	// any authenticated role.
	RequiredRoles []Role
}

// RequiresRole reports whether the request restricts access to specific roles.
func (r RouteAccessRequest) RequiresRole() bool {
	return len(r.RequiredRoles) > 0
}

// Permits reports whether the given role is in the required set.
func (r RouteAccessRequest) Permits(role Role) bool {
	for _, required := range r.RequiredRoles {
		if required == role {
			return true
		}
	}
	return false
}

// Decision is the outcome of a guard check: either the navigation proceeds
// or the caller is redirected.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Allow is the decision that lets a navigation proceed.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Redirect is the decision that sends the caller to path instead.
func Redirect(path string) Decision {
	return Decision{RedirectTo: path}
}
