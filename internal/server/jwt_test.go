package server

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/platform-decider/internal/config"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := testJWTService()
	subject := uuid.New()

	token, err := svc.GenerateToken(subject)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject.String(), claims.Subject)
	assert.Equal(t, config.DefaultJWTIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	got, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	sub, err := got.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, subject.String(), sub)
}

func TestJWTService_GenerateRequiresSubject(t *testing.T) {
	_, err := testJWTService().GenerateToken(uuid.Nil)
	assert.Error(t, err)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := testJWTService()
	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: "other", Issuer: config.DefaultJWTIssuer, ExpirationHours: 1})
		_, err := other.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signature")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: "test-secret", Issuer: "someone-else", ExpirationHours: 1})
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := testJWTService()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
}
