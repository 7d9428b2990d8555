// Package devserver is a stand-in for the production HLMS backend's auth
// endpoints. It exists so the client session kernel can be run and
// integration-tested against a real HTTP surface: same routes, same wire
// shapes, same status codes as the external collaborator.
package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/hlms/hlms-client/config"
	"github.com/hlms/hlms-client/internal/middleware"
	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/jwt"
	"github.com/hlms/hlms-client/pkg/logger"
	"github.com/hlms/hlms-client/pkg/metrics"
	"go.uber.org/zap"
)

var registerValidatorsOnce sync.Once

// registerValidators installs the custom role validator used by the
// binding tags on the auth request models.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("rolename", func(fl validator.FieldLevel) bool {
				return models.Role(fl.Field().String()).IsValid()
			})
		}
	})
}

type account struct {
	user         models.User
	passwordHash []byte
}

// Server implements the auth service contract for local development.
// Accounts live in memory; issued tokens sit in a TTL cache so logout and
// expiry both invalidate them.
type Server struct {
	cfg    *config.Config
	tm     *jwt.TokenManager
	tokens *gocache.Cache

	mu       sync.RWMutex
	accounts map[string]*account // keyed by lowercased email
}

// New creates a dev auth server. JWT_SECRET must be configured; without it
// no tokens can be minted.
func New(cfg *config.Config) (*Server, error) {
	if cfg.Session.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required to run the dev auth server")
	}

	ttl := time.Duration(cfg.Session.SessionTTLHours) * time.Hour
	s := &Server{
		cfg:      cfg,
		tm:       jwt.NewTokenManager(cfg.Session.JWTSecret, cfg.Session.JWTIssuer, cfg.Session.SessionTTLHours),
		tokens:   gocache.New(ttl, 10*time.Minute),
		accounts: make(map[string]*account),
	}
	return s, nil
}

// SeedAccount registers an account the dev server will accept logins for.
func (s *Server) SeedAccount(name, email, password string, role models.Role, verified bool) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(email)] = &account{
		user: models.User{
			ID:       uuid.NewString(),
			Name:     name,
			Email:    email,
			Role:     role,
			Verified: verified,
		},
		passwordHash: hash,
	}
	return nil
}

// SeedDefaults loads one account per role for local experiments.
func (s *Server) SeedDefaults() error {
	seeds := []struct {
		name, email, password string
		role                  models.Role
	}{
		{"Sam Student", "student@hlms.local", "student-pass-1", models.RoleStudent},
		{"Ingrid Instructor", "instructor@hlms.local", "instructor-pass-1", models.RoleInstructor},
		{"Ada Admin", "admin@hlms.local", "admin-pass-1", models.RoleAdmin},
	}
	for _, seed := range seeds {
		if err := s.SeedAccount(seed.name, seed.email, seed.password, seed.role, true); err != nil {
			return err
		}
	}
	return nil
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	registerValidators()

	gin.SetMode(s.cfg.DevServer.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := s.cfg.DevServer.AllowedOrigins
	if s.cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authRateLimiter := middleware.NewRateLimiter(rate.Limit(1), 5) // 1 req/sec, burst of 5

	auth := router.Group("/auth")
	auth.POST("/login", authRateLimiter.Middleware(), s.handleLogin)
	auth.POST("/register", authRateLimiter.Middleware(), s.handleRegister)
	auth.POST("/logout", s.handleLogout)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return router
}

// handleLogin implements POST /auth/login.
func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login payload"})
		return
	}

	s.mu.RLock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		logger.Warn("Login rejected", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.issueToken(acct.user)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, models.AuthPayload{User: &acct.user, Token: token})
}

// handleRegister implements POST /auth/register.
func (s *Server) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration payload"})
		return
	}
	if !req.Role.CanSelfRegister() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role cannot self-register"})
		return
	}

	key := strings.ToLower(req.Email)

	s.mu.Lock()
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.mu.Unlock()
		logger.Error("Failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	acct := &account{
		user: models.User{
			ID:    uuid.NewString(),
			Name:  req.Name,
			Email: req.Email,
			Role:  req.Role,
		},
		passwordHash: hash,
	}
	s.accounts[key] = acct
	s.mu.Unlock()

	token, err := s.issueToken(acct.user)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	logger.Info("Account registered",
		zap.String("user_id", acct.user.ID),
		zap.String("role", string(acct.user.Role)))
	c.JSON(http.StatusCreated, models.AuthPayload{User: &acct.user, Token: token})
}

// handleLogout implements POST /auth/logout. Invalidating an unknown token
// still answers 204; logout is idempotent.
func (s *Server) handleLogout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	s.tokens.Delete(token)
	c.Status(http.StatusNoContent)
}

func (s *Server) issueToken(user models.User) (string, error) {
	token, err := s.tm.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), user.Verified)
	if err != nil {
		return "", err
	}
	s.tokens.Set(token, user.ID, gocache.DefaultExpiration)
	return token, nil
}

// SessionUserID resolves an issued token to the user it belongs to.
// Returns false once the token is logged out or expired.
func (s *Server) SessionUserID(token string) (string, bool) {
	val, ok := s.tokens.Get(token)
	if !ok {
		return "", false
	}
	if _, err := s.tm.ValidateToken(token); err != nil {
		s.tokens.Delete(token)
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}
