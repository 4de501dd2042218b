package auth_test

import (
	"context"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key-that-is-long-enough-0123")

const testIssuer = "teamchat-test"

func issue(t *testing.T, id auth.Identity, ttl time.Duration) string {
	t.Helper()
	token, err := auth.NewTokenIssuer(testKey, testIssuer, ttl).Issue(id)
	require.NoError(t, err)
	return token
}

func TestVerify_ValidToken(t *testing.T) {
	v := auth.NewTokenVerifier(testKey, testIssuer, 0)
	token := issue(t, auth.Identity{UserID: "u1", Email: "u1@example.com", IsVerified: true}, time.Hour)

	id, err := v.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "u1@example.com", id.Email)
	assert.True(t, id.IsVerified)
}

func TestVerify_Failures(t *testing.T) {
	v := auth.NewTokenVerifier(testKey, testIssuer, 0)
	verified := auth.Identity{UserID: "u1", Email: "u1@example.com", IsVerified: true}

	otherKey, err := auth.NewTokenIssuer([]byte("another-signing-key-that-is-long-enough"), testIssuer, time.Hour).Issue(verified)
	require.NoError(t, err)
	otherIssuer, err := auth.NewTokenIssuer(testKey, "someone-else", time.Hour).Issue(verified)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:           "u1",
		EmailVerified:    true,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer},
	}).SignedString(testKey)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		title string
	}{
		{"missing", "", "Missing access token"},
		{"garbage", "not-a-jwt", "Invalid access token"},
		{"wrong key", otherKey, "Invalid access token"},
		{"wrong issuer", otherIssuer, "Invalid access token"},
		{"expired", issue(t, verified, -time.Minute), "Access token expired"},
		{"no expiry", noExpiry, "Invalid access token"},
		{"unverified", issue(t, auth.Identity{UserID: "u2"}, time.Hour), "Account is not verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindAuthentication))
			_, title := apperr.StatusCode(err)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestVerify_AllowUnverified(t *testing.T) {
	v := auth.NewTokenVerifier(testKey, testIssuer, 0)
	token := issue(t, auth.Identity{UserID: "u2", Email: "u2@example.com"}, time.Hour)

	id, err := v.Verify(token, auth.AllowUnverified())

	require.NoError(t, err)
	assert.Equal(t, "u2", id.UserID)
	assert.False(t, id.IsVerified)
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, auth.CurrentUser(ctx))

	ctx = auth.WithIdentity(ctx, auth.Identity{UserID: "u1"})
	assert.Equal(t, "u1", auth.CurrentUser(ctx))
}
