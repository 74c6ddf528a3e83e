package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateSessionToken("sid-1", time.Now())
	require.NoError(t, err)

	claims, err := m.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateSessionToken("sid-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = m.VerifySessionToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := NewManager("secret", time.Hour).GenerateSessionToken("sid-1", time.Now())
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).VerifySessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "sid-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).VerifySessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", time.Hour).VerifySessionToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
