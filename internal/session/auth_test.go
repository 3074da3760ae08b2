package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func keyFunc(token *jwt.Token) (interface{}, error) { return testSecret, nil }

func TestFieldsFromBearerTokenDecodesClaims(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})

	getter := FieldsFromBearerToken("Bearer", tok, keyFunc)
	fields, err := getter(context.Background())
	require.NoError(t, err)

	f, ok := fields["auth"].(*JWTField)
	require.True(t, ok)
	assert.Equal(t, "user-1", f.Claims["sub"])
	assert.False(t, f.IsExpired())
}

func TestFieldsFromBearerTokenRejectsUnsupportedScheme(t *testing.T) {
	getter := FieldsFromBearerToken("Basic", "dXNlcjpwYXNz", keyFunc)
	_, err := getter(context.Background())
	assert.Error(t, err)
}

func TestJWTFieldExpiredClaim(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	field, err := DecodeBearerToken(tok, keyFunc)
	require.NoError(t, err)
	assert.True(t, field.IsExpired())
}
