// Package storage is the persistent session store: a small synchronous
// key-value file mirroring what the browser build keeps in local storage.
// It is a passive mirror of auth state, never authoritative, and it fails
// soft: malformed stored data reads back as "no session".
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/logger"
	"go.uber.org/zap"
)

// Storage keys. The names are part of the persisted layout and must not
// change without a migration.
const (
	KeyAuthToken        = "auth_token"
	KeySessionUser      = "hlms_user"
	KeySidebarCollapsed = "hlms_sidebar_collapsed"
)

// SessionStore persists the auth token, the serialized user object and the
// sidebar UI preference. All operations are synchronous; every mutation is
// flushed to disk before returning.
type SessionStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewSessionStore opens (or creates) the store backed by the given file.
// An unreadable or corrupt file is treated as empty.
func NewSessionStore(path string) *SessionStore {
	s := &SessionStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Session store unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err))
		}
		return s
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn("Session store corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err))
		s.data = make(map[string]string)
	}
	return s
}

// Save writes the user and token under their separate keys.
func (s *SessionStore) Save(user *models.User, token string) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[KeyAuthToken] = token
	s.data[KeySessionUser] = string(blob)
	return s.flushLocked()
}

// Load returns the stored user and token, or (nil, "") when either is
// absent or the stored user blob fails to parse. It never returns an
// error: a broken session reads back as a logged-out state.
func (s *SessionStore) Load() (*models.User, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.data[KeyAuthToken]
	if !ok || token == "" {
		return nil, ""
	}
	blob, ok := s.data[KeySessionUser]
	if !ok || blob == "" {
		return nil, ""
	}

	user, err := decodeStoredUser([]byte(blob))
	if err != nil {
		logger.Warn("Stored user blob malformed, treating as no session", zap.Error(err))
		return nil, ""
	}
	return user, token
}

// Clear removes the token and user keys. The sidebar preference survives a
// logout.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, KeyAuthToken)
	delete(s.data, KeySessionUser)
	return s.flushLocked()
}

// SetSidebarCollapsed records the sidebar UI preference.
func (s *SessionStore) SetSidebarCollapsed(collapsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collapsed {
		s.data[KeySidebarCollapsed] = "true"
	} else {
		s.data[KeySidebarCollapsed] = "false"
	}
	return s.flushLocked()
}

// SidebarCollapsed reads the sidebar UI preference. Absent means expanded.
func (s *SessionStore) SidebarCollapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[KeySidebarCollapsed] == "true"
}

// flushLocked writes the store atomically (temp file + rename).
// Must be called with s.mu held.
func (s *SessionStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// storedUser is the on-disk user shape. Sessions written by legacy builds
// carry a roles array of descriptor objects instead of a flat role field.
type storedUser struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	AvatarURL string      `json:"avatarUrl,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	Verified  bool        `json:"verified"`
	Roles     []struct {
		Name string `json:"name"`
	} `json:"roles,omitempty"`
}

// decodeStoredUser parses a persisted user blob, promoting roles[0].name to
// the role field when the flat field is missing (legacy self-healing).
func decodeStoredUser(blob []byte) (*models.User, error) {
	var su storedUser
	if err := json.Unmarshal(blob, &su); err != nil {
		return nil, err
	}

	role := su.Role
	if role == "" && len(su.Roles) > 0 && su.Roles[0].Name != "" {
		role = models.Role(su.Roles[0].Name)
	}

	return &models.User{
		ID:        su.ID,
		Name:      su.Name,
		Email:     su.Email,
		AvatarURL: su.AvatarURL,
		Role:      role,
		Verified:  su.Verified,
	}, nil
}
