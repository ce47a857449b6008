// Package token issues and validates the signed JWTs that back sessions.
// Access tokens carry identity claims; refresh tokens carry only the subject
// and a longer expiry. Both are HS256-signed with the configured secret.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authgate/authgate/errs"
)

// AccessClaims are the claims embedded in an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"` // always present, even if empty
}

// RefreshClaims are the claims embedded in a refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Issuer signs and parses token pairs.
type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{Secret: secret, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Issue mints a new pair for the user. roles is embedded in the access token
// so downstream services can authorize without a lookup; the refresh token
// deliberately carries no roles, forcing a re-read on refresh.
func (i *Issuer) Issue(userID, email string, roles []string) (*Pair, error) {
	now := time.Now().UTC()
	if roles == nil {
		roles = []string{}
	}
	expiresAt := now.Add(i.AccessTTL)
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Roles: roles,
	})
	accessStr, err := access.SignedString(i.Secret)
	if err != nil {
		return nil, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.RefreshTTL)),
		},
	})
	refreshStr, err := refresh.SignedString(i.Secret)
	if err != nil {
		return nil, err
	}

	return &Pair{AccessToken: accessStr, RefreshToken: refreshStr, ExpiresAt: expiresAt}, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return i.Secret, nil
}

// ValidateAccess parses a live access token. Expired, malformed, or
// wrongly-signed tokens all surface as Unauthorized.
func (i *Issuer) ValidateAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return &claims, nil
}

// ParseAccessAllowExpired parses an access token but tolerates expiry. The
// refresh flow presents an expired access token alongside a live refresh
// token, so signature validity is what matters here.
func (i *Issuer) ParseAccessAllowExpired(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return &claims, nil
}

// ValidateRefresh parses a live refresh token.
func (i *Issuer) ValidateRefresh(tokenStr string) (*RefreshClaims, error) {
	var claims RefreshClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return &claims, nil
}
