package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/kelas-qna-api/pkg/config"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	Email string
	Name  string
}

// IdentityProvider turns a raw bearer token into a verified identity.
type IdentityProvider interface {
	Resolve(token string) (*Identity, error)
}

// IdentityClaims is the claim set expected on access tokens. Tokens are minted
// by an external issuer; this service only verifies and reads them.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTIdentityProvider validates HS256 tokens against a shared secret.
type JWTIdentityProvider struct {
	secret []byte
	issuer string
}

// NewJWTIdentityProvider constructs a provider from configuration.
func NewJWTIdentityProvider(cfg config.JWTConfig) *JWTIdentityProvider {
	return &JWTIdentityProvider{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// Resolve parses and validates the token, returning the caller identity.
func (p *JWTIdentityProvider) Resolve(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if p.issuer != "" {
		if issuer, err := claims.GetIssuer(); err != nil || issuer != p.issuer {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected token issuer")
		}
	}
	if claims.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no email claim")
	}

	return &Identity{Email: claims.Email, Name: claims.Name}, nil
}
