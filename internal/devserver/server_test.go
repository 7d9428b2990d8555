package devserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hlms/hlms-client/config"
	"github.com/hlms/hlms-client/internal/devserver"
	"github.com/hlms/hlms-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		DevServer: config.DevServerConfig{
			Port:           "0",
			GinMode:        gin.TestMode,
			AppEnv:         "development",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Session: config.SessionConfig{
			JWTSecret:       "test-secret-0123456789abcdef",
			JWTIssuer:       "hlms-test",
			SessionTTLHours: 1,
		},
	}
}

func newServer(t *testing.T) (*devserver.Server, *gin.Engine) {
	t.Helper()
	s, err := devserver.New(testConfig())
	require.NoError(t, err)
	require.NoError(t, s.SeedDefaults())
	return s, s.Router()
}

func postJSON(router *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresJWTSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Session.JWTSecret = ""
	_, err := devserver.New(cfg)
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/login", models.LoginRequest{
		Email:    "student@hlms.local",
		Password: "student-pass-1",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var payload models.AuthPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Token)
	require.NotNil(t, payload.User)
	assert.Equal(t, models.RoleStudent, payload.User.Role)
	assert.Equal(t, "student@hlms.local", payload.User.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/login", models.LoginRequest{
		Email:    "student@hlms.local",
		Password: "not-the-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/login", models.LoginRequest{
		Email:    "ghost@hlms.local",
		Password: "whatever-pass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/login", models.LoginRequest{
		Email:    "STUDENT@hlms.local",
		Password: "student-pass-1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Success(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/register", models.RegisterRequest{
		Name:     "New Student",
		Email:    "new@hlms.local",
		Password: "brand-new-pass",
		Role:     models.RoleStudent,
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var payload models.AuthPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, models.RoleStudent, payload.User.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/register", models.RegisterRequest{
		Name:     "Imposter",
		Email:    "student@hlms.local",
		Password: "imposter-pass",
		Role:     models.RoleStudent,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_AdminCannotSelfRegister(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/register", models.RegisterRequest{
		Name:     "Wannabe Admin",
		Email:    "boss@hlms.local",
		Password: "admin-pass-123",
		Role:     models.RoleAdmin,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UnknownRoleRejected(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/register", map[string]string{
		"name":     "Odd One",
		"email":    "odd@hlms.local",
		"password": "some-password",
		"role":     "superuser",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	s, router := newServer(t)

	w := postJSON(router, "/auth/login", models.LoginRequest{
		Email:    "instructor@hlms.local",
		Password: "instructor-pass-1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload models.AuthPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))

	_, ok := s.SessionUserID(payload.Token)
	require.True(t, ok)

	w = postJSON(router, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + payload.Token,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, ok = s.SessionUserID(payload.Token)
	assert.False(t, ok)
}

func TestLogout_MissingToken(t *testing.T) {
	_, router := newServer(t)

	w := postJSON(router, "/auth/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	_, router := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
