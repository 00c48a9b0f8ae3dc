package storage

import (
	"path/filepath"
	"testing"

	"studygenie/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "client.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCredentialRoundTrip(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Credential()
	require.NoError(t, err)
	assert.False(t, ok, "fresh store is logged out")

	require.NoError(t, s.SaveCredential("T1"))
	token, ok, err := s.Credential()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	// Saving again replaces, never accumulates.
	require.NoError(t, s.SaveCredential("T2"))
	token, ok, err = s.Credential()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T2", token)
}

func TestClearCredentialIsIdempotent(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveCredential("T1"))
	require.NoError(t, s.SaveProfile(models.User{ID: "u1", Name: "Ann"}))

	require.NoError(t, s.ClearCredential())
	require.NoError(t, s.ClearCredential()) // clearing an empty store succeeds

	_, ok, err := s.Credential()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Profile()
	require.NoError(t, err)
	assert.False(t, ok, "cached profile goes with the credential")
}

func TestProfileRoundTrip(t *testing.T) {
	s := openStore(t)

	user := models.User{
		ID:             "u1",
		Name:           "Ann",
		Email:          "a@b.com",
		Age:            21,
		EducationLevel: "undergraduate",
		LearningStyle:  "visual",
		IsOnboarded:    true,
		TotalPoints:    120,
	}
	user.Streak.Count = 3
	require.NoError(t, s.SaveProfile(user))

	got, ok, err := s.Profile()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user.Name, got.Name)
	assert.Equal(t, user.Age, got.Age)
	assert.True(t, got.IsOnboarded)
	assert.Equal(t, 3, got.Streak.Count)
}
