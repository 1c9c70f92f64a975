package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/testutil"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestGuestIdentityProvider(t *testing.T) {
	p := NewGuestIdentityProvider(config.GuestConfig{ID: 1, Email: "guest@example.com", Name: "Guest"})
	assert.Equal(t, util.IdentityGuest, p.Mode())

	identity, err := p.Authenticate(newTestContext(httptest.NewRequest(http.MethodGet, "/api/me", nil)))
	require.NoError(t, err)
	assert.Equal(t, uint(1), identity.UserID)
	assert.Equal(t, "guest@example.com", identity.Email)

	result, err := p.Login(context.Background(), "someone@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", result.User.Email)
	assert.Empty(t, result.Token)
	// 登录回显邮箱不会改动访客配置
	assert.Equal(t, "guest@example.com", p.Guest.Email)

	identity, err = p.Authenticate(newTestContext(httptest.NewRequest(http.MethodGet, "/api/email/reminder", nil)))
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", identity.Email)
}

func TestJWTIdentityProvider(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(repository.NewUserRepository(db))
	p := NewJWTIdentityProvider(auth, config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour})
	ctx := context.Background()

	user, err := auth.Register("Alice", " Alice@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = auth.Register("Alice", "alice@example.com", "other")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = p.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	result, err := p.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.UserID)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+result.Token)
		identity, err := p.Authenticate(newTestContext(req))
		require.NoError(t, err)
		assert.Equal(t, "Alice", identity.Name)
	})

	t.Run("query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me?token="+result.Token, nil)
		identity, err := p.Authenticate(newTestContext(req))
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)
	})

	t.Run("missing or forged token", func(t *testing.T) {
		_, err := p.Authenticate(newTestContext(httptest.NewRequest(http.MethodGet, "/api/me", nil)))
		assert.ErrorIs(t, err, util.ErrUnauthenticated)

		forged, err := util.GenerateJWT(&util.Identity{UserID: user.ID}, "other-secret", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		_, err = p.Authenticate(newTestContext(req))
		assert.ErrorIs(t, err, util.ErrUnauthenticated)
	})
}

func TestNewIdentityProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Identity.Provider = "jwt"
	p, err := NewIdentityProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, util.IdentityJWT, p.Mode())

	cfg.Identity.Provider = "ldap"
	_, err = NewIdentityProvider(cfg, nil)
	assert.Error(t, err)
}
