package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTKeyFunc resolves the signing key used to verify a bearer token,
// matching jwt.Parser's keyFunc contract.
type JWTKeyFunc func(token *jwt.Token) (interface{}, error)

// JWTField is a Field backed by a decoded bearer token's claims (§6
// "Authorization -> parsed into (scheme, credentials) pair stored in task
// metadata"). A bearer token is opaque once issued, so Refresh is a no-op;
// expiry follows the claims' exp, if present.
type JWTField struct {
	Claims   jwt.MapClaims
	decodedAt time.Time
}

func (f *JWTField) IsExpired() bool {
	if f.Claims == nil {
		return true
	}
	exp, err := f.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}

func (f *JWTField) Refresh(ctx context.Context) error { return nil }

func (f *JWTField) Destroy() {}

func (f *JWTField) UpdatedAt() time.Time { return f.decodedAt }

// bearerParser verifies signatures only; expiry is the session layer's own
// concern (JWTField.IsExpired), not the library's, so an already-expired
// but validly-signed token still decodes and is handed to the pool's
// expiry/refresh machinery instead of failing to parse outright.
var bearerParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// DecodeBearerToken parses and verifies credential's signature using
// keyFunc, returning the resulting claim set as a session Field.
func DecodeBearerToken(credential string, keyFunc JWTKeyFunc) (*JWTField, error) {
	token, err := bearerParser.Parse(credential, keyFunc)
	if err != nil {
		return nil, fmt.Errorf("session: decode bearer token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("session: unexpected claims type %T", token.Claims)
	}
	return &JWTField{Claims: claims, decodedAt: time.Now()}, nil
}

// FieldsFromBearerToken builds a FieldsGetter suitable for Pool.Upsert that
// decodes a bearer credential into an "auth" field, the common case for
// the HTTP transport's parsed Authorization header (§4.7, §6).
func FieldsFromBearerToken(scheme, credential string, keyFunc JWTKeyFunc) FieldsGetter {
	return func(ctx context.Context) (map[string]Field, error) {
		if !strings.EqualFold(scheme, "bearer") {
			return nil, fmt.Errorf("session: unsupported auth scheme %q", scheme)
		}
		field, err := DecodeBearerToken(credential, keyFunc)
		if err != nil {
			return nil, err
		}
		return map[string]Field{"auth": field}, nil
	}
}
