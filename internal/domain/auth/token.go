// Package auth identifies the device behind a request. Devices present an
// HS256 bearer token whose subject is the device id and whose "acc" claim is
// the owning account.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Header names used when token verification is disabled.
const (
	HeaderDevice  = "X-Sleepvoice-Device"
	HeaderAccount = "X-Sleepvoice-Account"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrMissingIdentity = errors.New("missing device identity")
)

// Identity is who is speaking.
type Identity struct {
	DeviceID  string
	AccountID string
}

// Claims is the token payload.
type Claims struct {
	Account string `json:"acc"`
	jwt.RegisteredClaims
}

// TokenAuthority signs and verifies device tokens.
type TokenAuthority struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenAuthority builds an authority; an empty secret is rejected.
func NewTokenAuthority(secretKey, issuer string) (*TokenAuthority, error) {
	if secretKey == "" {
		return nil, errors.New("auth token secret is empty")
	}
	return &TokenAuthority{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       30 * 24 * time.Hour,
		now:       time.Now,
	}, nil
}

// WithTTL allows customising the expiration duration.
func (at *TokenAuthority) WithTTL(ttl time.Duration) *TokenAuthority {
	if ttl > 0 {
		at.ttl = ttl
	}
	return at
}

// Issue signs a token for id.
func (at *TokenAuthority) Issue(id Identity) (string, error) {
	if id.DeviceID == "" || id.AccountID == "" {
		return "", ErrMissingIdentity
	}
	now := at.now()
	claims := Claims{
		Account: id.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.DeviceID,
			Issuer:    at.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(at.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(at.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and extracts the identity.
func (at *TokenAuthority) Verify(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(at.now),
	}
	if at.issuer != "" {
		opts = append(opts, jwt.WithIssuer(at.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return at.secretKey, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" || claims.Account == "" {
		return Identity{}, ErrMissingIdentity
	}
	return Identity{DeviceID: claims.Subject, AccountID: claims.Account}, nil
}

// FromRequest resolves the caller. With an authority the bearer token is
// required (Authorization header, or the "token" query parameter for
// WebSocket clients that cannot set headers). Without one the identity is
// read from the X-Sleepvoice-* headers or the matching query parameters.
func FromRequest(r *http.Request, at *TokenAuthority) (Identity, error) {
	if at != nil {
		token := bearer(r.Header.Get("Authorization"))
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			return Identity{}, ErrMissingToken
		}
		return at.Verify(token)
	}

	id := Identity{
		DeviceID:  firstNonEmpty(r.Header.Get(HeaderDevice), r.URL.Query().Get("device_id")),
		AccountID: firstNonEmpty(r.Header.Get(HeaderAccount), r.URL.Query().Get("account_id")),
	}
	if id.DeviceID == "" || id.AccountID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return id, nil
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
