package models

// Role defines the access level of an HLMS account. The set is closed;
// anything outside it is rejected at the boundary rather than carried along.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleInstructor || r == RoleAdmin
}

// CanSelfRegister reports whether an account with this role may be created
// through the public registration form. Admin accounts are provisioned
// out of band.
func (r Role) CanSelfRegister() bool {
	return r == RoleStudent || r == RoleInstructor
}

// User represents the authenticated identity returned by the auth service.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      Role   `json:"role"`
	Verified  bool   `json:"verified"`
}

// Session is the credential pair held by the client for the current user.
// A nil Session or an empty token means "not authenticated".
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// IsAuthenticated is derived state: a session is authenticated exactly when
// it carries a token.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}

// Email returns the session user's email, or "" when no user is attached.
func (s *Session) Email() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Email
}

// AuthPayload is the response body of the auth service's login and
// register endpoints.
type AuthPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     Role   `json:"role" binding:"required,rolename"`
}
