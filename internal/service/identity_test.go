package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/pkg/config"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

func mintToken(t *testing.T, secret, issuer, email, name string) string {
	t.Helper()
	claims := IdentityClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTIdentityProviderRoundTrip(t *testing.T) {
	provider := NewJWTIdentityProvider(config.JWTConfig{Secret: "s3cret", Issuer: "accounts.test"})

	identity, err := provider.Resolve(mintToken(t, "s3cret", "accounts.test", "guru@sekolah.id", "Bu Sari"))
	require.NoError(t, err)
	assert.Equal(t, "guru@sekolah.id", identity.Email)
	assert.Equal(t, "Bu Sari", identity.Name)
}

func TestJWTIdentityProviderRejectsWrongSecret(t *testing.T) {
	provider := NewJWTIdentityProvider(config.JWTConfig{Secret: "s3cret"})

	_, err := provider.Resolve(mintToken(t, "other", "", "guru@sekolah.id", ""))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestJWTIdentityProviderRejectsWrongIssuer(t *testing.T) {
	provider := NewJWTIdentityProvider(config.JWTConfig{Secret: "s3cret", Issuer: "accounts.test"})

	_, err := provider.Resolve(mintToken(t, "s3cret", "someone-else", "guru@sekolah.id", ""))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestJWTIdentityProviderRequiresEmailClaim(t *testing.T) {
	provider := NewJWTIdentityProvider(config.JWTConfig{Secret: "s3cret"})

	_, err := provider.Resolve(mintToken(t, "s3cret", "", "", ""))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestJWTIdentityProviderRejectsExpiredToken(t *testing.T) {
	provider := NewJWTIdentityProvider(config.JWTConfig{Secret: "s3cret"})

	claims := IdentityClaims{
		Email: "guru@sekolah.id",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = provider.Resolve(token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
