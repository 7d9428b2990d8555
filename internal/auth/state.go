// Package auth owns the client's session: who is logged in and with what
// token. It is the single writer of the persistent session store; the idle
// lock controller and the router guard only ever read from it.
package auth

import (
	"context"
	"sync"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/internal/storage"
	"github.com/hlms/hlms-client/pkg/logger"
	"github.com/hlms/hlms-client/pkg/metrics"
	"go.uber.org/zap"
)

// API is the slice of the auth service the state machine needs.
type API interface {
	Login(ctx context.Context, email, password string) (*models.AuthPayload, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthPayload, error)
	Logout(ctx context.Context, token string) error
}

// LockResetter is the teardown hook into the idle lock controller. Logout
// must never leave a locked ghost session behind.
type LockResetter interface {
	Reset()
}

// State holds the in-memory session, hydrated from the store at startup
// and mutated only by Initialize, Login, Register and Logout.
type State struct {
	mu      sync.Mutex
	store   *storage.SessionStore
	api     API
	lock    LockResetter
	session *models.Session

	// epoch increments on every teardown. A response applied under a stale
	// epoch is discarded so it cannot resurrect a cleared session.
	epoch   uint64
	pending bool
}

// NewState creates the auth state. The lock controller is attached later
// via SetLockResetter because it needs the state to read from.
func NewState(store *storage.SessionStore, api API) *State {
	return &State{store: store, api: api}
}

// SetLockResetter attaches the idle lock teardown hook.
func (s *State) SetLockResetter(lock LockResetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lock = lock
}

// Initialize rehydrates the session from the persistent store. A missing
// or malformed stored session leaves the state logged out.
func (s *State) Initialize() {
	user, token := s.store.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		s.session = nil
		return
	}
	s.session = &models.Session{User: user, Token: token}
	logger.Info("Session rehydrated from store",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
}

// Current returns the live session, or nil when logged out. Callers treat
// the result as read-only.
func (s *State) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// IsAuthenticated reports whether a token is held.
func (s *State) IsAuthenticated() bool {
	return s.Current().IsAuthenticated()
}

// Login authenticates against the auth service. On success the session is
// replaced and mirrored to the store; on failure prior state is untouched
// and an *AuthError carries the displayable reason.
func (s *State) Login(ctx context.Context, email, password string) (*models.Session, error) {
	epoch, err := s.beginRequest()
	if err != nil {
		return nil, err
	}
	defer s.endRequest()

	payload, err := s.api.Login(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, newAuthError(err)
	}

	session, err := s.apply(epoch, payload)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	logger.Info("Login succeeded",
		zap.String("user_id", payload.User.ID),
		zap.String("role", string(payload.User.Role)))
	return session, nil
}

// Register creates an account and logs it in. Only student and instructor
// roles may self-register.
func (s *State) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, error) {
	if !req.Role.IsValid() || !req.Role.CanSelfRegister() {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		return nil, &AuthError{
			Reason:  ReasonInvalidRole,
			Message: "this role cannot register",
		}
	}

	epoch, err := s.beginRequest()
	if err != nil {
		return nil, err
	}
	defer s.endRequest()

	payload, err := s.api.Register(ctx, req)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		return nil, newAuthError(err)
	}

	session, err := s.apply(epoch, payload)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	logger.Info("Registration succeeded",
		zap.String("user_id", payload.User.ID),
		zap.String("role", string(payload.User.Role)))
	return session, nil
}

// Logout tears the session down completely: in-memory state, persistent
// store and lock state all reset before the server is notified. A failed
// server call leaves the client logged out regardless.
func (s *State) Logout(ctx context.Context) {
	s.mu.Lock()
	token := ""
	if s.session != nil {
		token = s.session.Token
	}
	s.session = nil
	s.epoch++
	lock := s.lock
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		logger.Warn("Failed to clear session store", zap.Error(err))
	}
	if lock != nil {
		lock.Reset()
	}

	if token == "" {
		return
	}
	if err := s.api.Logout(ctx, token); err != nil {
		logger.Warn("Server-side logout failed", zap.Error(err))
	}
	logger.Info("Logged out")
}

func (s *State) beginRequest() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return 0, ErrRequestPending
	}
	s.pending = true
	return s.epoch, nil
}

func (s *State) endRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
}

// apply installs a successful auth payload unless the session was torn
// down while the request was in flight.
func (s *State) apply(epoch uint64, payload *models.AuthPayload) (*models.Session, error) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		logger.Warn("Discarding stale auth response")
		return nil, ErrSuperseded
	}
	s.session = &models.Session{User: payload.User, Token: payload.Token}
	copied := *s.session
	s.mu.Unlock()

	if err := s.store.Save(payload.User, payload.Token); err != nil {
		// The store is a mirror, not the source of truth. Log and move on.
		logger.Warn("Failed to persist session", zap.Error(err))
	}
	return &copied, nil
}
