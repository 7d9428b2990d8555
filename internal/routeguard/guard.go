// Package routeguard decides, per navigation attempt, whether the current
// session may enter a route. Decisions are pure functions of (request,
// session) and are recomputed on every attempt, never cached.
package routeguard

import (
	"sync"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/metrics"
)

// Role home paths: where each role lands by default.
const (
	AdminHomePath      = "/admin"
	InstructorHomePath = "/instructor"
	StudentHomePath    = "/dashboard"
)

// RoleHomePath maps a role to its default landing route. The switch is
// exhaustive over the closed role set; anything else falls back to the
// student dashboard.
func RoleHomePath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return AdminHomePath
	case models.RoleInstructor:
		return InstructorHomePath
	case models.RoleStudent:
		return StudentHomePath
	default:
		return StudentHomePath
	}
}

// Guard evaluates route access against the current session. Besides the
// decision itself it remembers the last path an unauthenticated user was
// bounced from, so the login flow can return there afterwards. That memory
// is in-process only and does not survive a restart.
type Guard struct {
	mu        sync.Mutex
	loginPath string
	returnTo  string
}

// New creates a Guard that redirects unauthenticated users to loginPath.
func New(loginPath string) *Guard {
	return &Guard{loginPath: loginPath}
}

// CheckAccess evaluates a navigation attempt.
//
// Unauthenticated sessions are redirected to the login path and the
// requested path is remembered. Authenticated sessions lacking a required
// role are redirected to their own role's home path. Everything else is
// allowed.
func (g *Guard) CheckAccess(req models.RouteAccessRequest, session *models.Session) models.Decision {
	if !session.IsAuthenticated() {
		g.mu.Lock()
		g.returnTo = req.Path
		g.mu.Unlock()
		metrics.GuardRedirects.WithLabelValues("unauthenticated").Inc()
		return models.Redirect(g.loginPath)
	}

	if req.RequiresRole() && !req.Permits(session.User.Role) {
		metrics.GuardRedirects.WithLabelValues("wrong_role").Inc()
		return models.Redirect(RoleHomePath(session.User.Role))
	}

	return models.Allow()
}

// CheckPublicOnly guards the login and register pages: an authenticated
// user has no business there and is sent to their role home instead.
func (g *Guard) CheckPublicOnly(session *models.Session) models.Decision {
	if session.IsAuthenticated() {
		metrics.GuardRedirects.WithLabelValues("already_authenticated").Inc()
		return models.Redirect(RoleHomePath(session.User.Role))
	}
	return models.Allow()
}

// ConsumeReturnPath returns the path remembered from the last
// unauthenticated redirect and forgets it. Empty when none is pending.
func (g *Guard) ConsumeReturnPath() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	path := g.returnTo
	g.returnTo = ""
	return path
}
