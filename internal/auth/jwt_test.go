package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeroute/chargeroute/internal/auth"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://api.chargeroute.test",
		Audience:   "chargeroute-api",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateAccessToken("usr_123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_123", claims.UserID)
	assert.Equal(t, "usr_123", claims.Subject)
	assert.Equal(t, "https://api.chargeroute.test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	svc := newTestJWTService()
	token, _, err := svc.GenerateAccessToken("usr_123")
	require.NoError(t, err)

	other := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "a-completely-different-key",
		Issuer:     "https://api.chargeroute.test",
		Audience:   "chargeroute-api",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	issuer := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://evil.example",
		Audience:   "chargeroute-api",
	})
	token, _, err := issuer.GenerateAccessToken("usr_123")
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RejectsWrongAudience(t *testing.T) {
	issuer := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://api.chargeroute.test",
		Audience:   "some-other-api",
	})
	token, _, err := issuer.GenerateAccessToken("usr_123")
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://api.chargeroute.test",
		Audience:   "chargeroute-api",
		Expiry:     -1 * time.Minute,
	})

	token, _, err := svc.GenerateAccessToken("usr_123")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	_, err := newTestJWTService().ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
