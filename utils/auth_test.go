package utils

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/models"
)

type fakeUserFinder struct {
	user   *models.User
	called bool
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.called = true
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, assert.AnError
}

func TestValidateToken_RejectsBlacklisted(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	token, _, err := middleware.GenerateJWT(userID.String(), "pat@example.com", "free")
	require.NoError(t, err)

	middleware.BlacklistToken(token, time.Now().Add(time.Hour))

	finder := &fakeUserFinder{}
	resp, err := ValidateToken(context.Background(), token, finder)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, "Token has been invalidated", resp.Message)
	assert.False(t, finder.called, "blacklisted token must not reach the user store")
}

func TestValidateToken_AcceptsActiveUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	token, _, err := middleware.GenerateJWT(userID.String(), "pat@example.com", "free")
	require.NoError(t, err)

	finder := &fakeUserFinder{user: &models.User{ID: userID, Email: "pat@example.com", IsActive: true}}
	resp, err := ValidateToken(context.Background(), token, finder)
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	require.NotNil(t, resp.User)
	assert.Equal(t, userID, resp.User.ID)
}

func TestValidateToken_EmptyToken(t *testing.T) {
	resp, err := ValidateToken(context.Background(), "", &fakeUserFinder{})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
}
