package routeguard_test

import (
	"testing"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/internal/routeguard"
	"github.com/stretchr/testify/assert"
)

func sessionWithRole(role models.Role) *models.Session {
	return &models.Session{
		User:  &models.User{ID: "u-1", Email: "u@hlms.local", Role: role},
		Token: "tok",
	}
}

func TestRoleHomePath(t *testing.T) {
	assert.Equal(t, "/admin", routeguard.RoleHomePath(models.RoleAdmin))
	assert.Equal(t, "/instructor", routeguard.RoleHomePath(models.RoleInstructor))
	assert.Equal(t, "/dashboard", routeguard.RoleHomePath(models.RoleStudent))
}

func TestGuard_UnauthenticatedAlwaysRedirectsToLogin(t *testing.T) {
	g := routeguard.New("/login")

	cases := []models.RouteAccessRequest{
		{Path: "/dashboard"},
		{Path: "/admin", RequiredRoles: []models.Role{models.RoleAdmin}},
		{Path: "/courses/42", RequiredRoles: []models.Role{models.RoleStudent, models.RoleInstructor}},
	}
	for _, req := range cases {
		decision := g.CheckAccess(req, nil)
		assert.False(t, decision.Allowed)
		assert.Equal(t, "/login", decision.RedirectTo)
	}
}

func TestGuard_RemembersRequestedPath(t *testing.T) {
	g := routeguard.New("/login")

	g.CheckAccess(models.RouteAccessRequest{Path: "/courses/42"}, nil)
	assert.Equal(t, "/courses/42", g.ConsumeReturnPath())

	// Consumed exactly once
	assert.Empty(t, g.ConsumeReturnPath())
}

func TestGuard_WrongRoleRedirectsToOwnHome(t *testing.T) {
	g := routeguard.New("/login")

	decision := g.CheckAccess(
		models.RouteAccessRequest{Path: "/admin", RequiredRoles: []models.Role{models.RoleAdmin}},
		sessionWithRole(models.RoleInstructor),
	)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "/instructor", decision.RedirectTo)

	decision = g.CheckAccess(
		models.RouteAccessRequest{Path: "/admin", RequiredRoles: []models.Role{models.RoleAdmin}},
		sessionWithRole(models.RoleStudent),
	)
	assert.Equal(t, "/dashboard", decision.RedirectTo)
}

func TestGuard_MatchingRoleAllowed(t *testing.T) {
	g := routeguard.New("/login")

	decision := g.CheckAccess(
		models.RouteAccessRequest{Path: "/admin", RequiredRoles: []models.Role{models.RoleAdmin}},
		sessionWithRole(models.RoleAdmin),
	)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.RedirectTo)
}

func TestGuard_EmptyRequiredRolesMeansAnyAuthenticated(t *testing.T) {
	g := routeguard.New("/login")

	for _, role := range []models.Role{models.RoleStudent, models.RoleInstructor, models.RoleAdmin} {
		decision := g.CheckAccess(models.RouteAccessRequest{Path: "/profile"}, sessionWithRole(role))
		assert.True(t, decision.Allowed, "role %s should reach a role-agnostic route", role)
	}
}

func TestGuard_PublicOnlyRedirectsAuthenticated(t *testing.T) {
	g := routeguard.New("/login")

	decision := g.CheckPublicOnly(sessionWithRole(models.RoleAdmin))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "/admin", decision.RedirectTo)

	decision = g.CheckPublicOnly(nil)
	assert.True(t, decision.Allowed)
}

func TestGuard_DecisionsNotCached(t *testing.T) {
	g := routeguard.New("/login")
	req := models.RouteAccessRequest{Path: "/dashboard"}

	decision := g.CheckAccess(req, nil)
	assert.Equal(t, "/login", decision.RedirectTo)

	// Same request, now authenticated: re-evaluated, not replayed
	decision = g.CheckAccess(req, sessionWithRole(models.RoleStudent))
	assert.True(t, decision.Allowed)
}
