package storage_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestSessionStore_SaveLoadRoundtrip(t *testing.T) {
	path := storePath(t)
	store := storage.NewSessionStore(path)

	user := &models.User{
		ID:       "u-1",
		Name:     "Sam Student",
		Email:    "sam@hlms.local",
		Role:     models.RoleStudent,
		Verified: true,
	}
	require.NoError(t, store.Save(user, "tok-123"))

	loadedUser, token := store.Load()
	require.NotNil(t, loadedUser)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, user.ID, loadedUser.ID)
	assert.Equal(t, models.RoleStudent, loadedUser.Role)
	assert.True(t, loadedUser.Verified)
}

func TestSessionStore_PersistsAcrossReopen(t *testing.T) {
	path := storePath(t)
	store := storage.NewSessionStore(path)
	require.NoError(t, store.Save(&models.User{ID: "u-1", Email: "a@b.c", Role: models.RoleAdmin}, "tok"))

	reopened := storage.NewSessionStore(path)
	user, token := reopened.Load()
	require.NotNil(t, user)
	assert.Equal(t, "tok", token)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestSessionStore_LoadAbsent(t *testing.T) {
	store := storage.NewSessionStore(storePath(t))
	user, token := store.Load()
	assert.Nil(t, user)
	assert.Empty(t, token)
}

func TestSessionStore_Clear(t *testing.T) {
	path := storePath(t)
	store := storage.NewSessionStore(path)
	require.NoError(t, store.Save(&models.User{ID: "u-1"}, "tok"))
	require.NoError(t, store.SetSidebarCollapsed(true))

	require.NoError(t, store.Clear())

	user, token := store.Load()
	assert.Nil(t, user)
	assert.Empty(t, token)
	// UI preference survives logout
	assert.True(t, store.SidebarCollapsed())
}

func TestSessionStore_MalformedUserBlobIsNoSession(t *testing.T) {
	path := storePath(t)
	raw, err := json.Marshal(map[string]string{
		storage.KeyAuthToken:   "tok",
		storage.KeySessionUser: "{not json",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	store := storage.NewSessionStore(path)
	user, token := store.Load()
	assert.Nil(t, user)
	assert.Empty(t, token)
}

func TestSessionStore_CorruptFileStartsEmpty(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	store := storage.NewSessionStore(path)
	user, token := store.Load()
	assert.Nil(t, user)
	assert.Empty(t, token)

	// The store still accepts writes afterwards
	require.NoError(t, store.Save(&models.User{ID: "u-2"}, "tok-2"))
	user, token = store.Load()
	require.NotNil(t, user)
	assert.Equal(t, "tok-2", token)
}

func TestSessionStore_LegacyRolesArrayPromoted(t *testing.T) {
	path := storePath(t)
	legacyUser := `{"id":"u-9","name":"Old Timer","email":"old@hlms.local","roles":[{"name":"instructor"},{"name":"student"}]}`
	raw, err := json.Marshal(map[string]string{
		storage.KeyAuthToken:   "tok",
		storage.KeySessionUser: legacyUser,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	store := storage.NewSessionStore(path)
	user, token := store.Load()
	require.NotNil(t, user)
	assert.Equal(t, "tok", token)
	assert.Equal(t, models.RoleInstructor, user.Role)
}

func TestSessionStore_DirectRoleWinsOverRolesArray(t *testing.T) {
	path := storePath(t)
	blob := `{"id":"u-9","email":"x@y.z","role":"admin","roles":[{"name":"student"}]}`
	raw, err := json.Marshal(map[string]string{
		storage.KeyAuthToken:   "tok",
		storage.KeySessionUser: blob,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	store := storage.NewSessionStore(path)
	user, _ := store.Load()
	require.NotNil(t, user)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestSessionStore_SidebarPreference(t *testing.T) {
	path := storePath(t)
	store := storage.NewSessionStore(path)

	assert.False(t, store.SidebarCollapsed())
	require.NoError(t, store.SetSidebarCollapsed(true))
	assert.True(t, store.SidebarCollapsed())

	reopened := storage.NewSessionStore(path)
	assert.True(t, reopened.SidebarCollapsed())
}
