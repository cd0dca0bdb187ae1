// Package auth resolves bearer tokens into caller identities.
//
// Tokens are HS256 JWTs issued by the external identity provider. The
// subject claim is the stable external user id; email and name are optional
// profile claims used to provision the internal user on first sight.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/service"
)

// ErrInvalidToken is returned for missing, malformed, expired or
// wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks tokens against a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses the token and returns the identity it carries.
func (v *Verifier) Verify(_ context.Context, token string) (service.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return service.Identity{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return service.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return service.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id := service.Identity{ExternalID: subject, Email: strings.TrimSpace(claims.Email)}
	if name := strings.TrimSpace(claims.Name); name != "" {
		id.Name = &name
	}
	return id, nil
}

// Sign issues a token for the identity. ttl <= 0 issues a token without expiry.
func (v *Verifier) Sign(id service.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.ExternalID,
			Issuer:   v.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if id.Name != nil {
		claims.Name = *id.Name
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
