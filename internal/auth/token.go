// Package auth provides password hashing and the access/refresh token codec.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Access tokens are short-lived and fully stateless;
// refresh tokens are long-lived and must be cross-checked against the
// refresh_tokens table, otherwise revocation would be impossible.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// AccessPayload carries the identity claims embedded in an access token.
// Name is "" when the user has no display name.
type AccessPayload struct {
	Sub   string
	Email string
	Role  string
	Name  string
}

// RefreshPayload carries the claims embedded in a refresh token. TokenID is
// the id of the refresh_tokens row that proves the session is still active.
type RefreshPayload struct {
	Sub     string
	TokenID string
}

// Codec signs and verifies HS256 tokens. Access and refresh tokens use
// distinct secrets so one class can never be replayed as the other.
// The clock is injectable for expiry tests.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewCodec builds a Codec from the two signing secrets.
func NewCodec(accessSecret, refreshSecret string) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// WithClock overrides the codec's time source. Test hook.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// SignAccess issues an access token for the given identity with issued-at
// and a 15-minute absolute expiry.
func (c *Codec) SignAccess(p AccessPayload) (string, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub":   p.Sub,
		"email": p.Email,
		"role":  p.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(AccessTokenTTL).Unix(),
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.accessSecret)
}

// SignRefresh issues a refresh token bound to a refresh_tokens row, with a
// 7-day absolute expiry.
func (c *Codec) SignRefresh(userID, tokenID string) (string, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub":     userID,
		"tokenId": tokenID,
		"iat":     now.Unix(),
		"exp":     now.Add(RefreshTokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.refreshSecret)
}

// VerifyAccess parses and validates an access token. It returns nil on any
// failure: bad signature, wrong algorithm, expiry in the past, or missing /
// mistyped sub, email or role claims. It never returns an error to the
// caller; an invalid token and an absent one look the same.
func (c *Codec) VerifyAccess(token string) *AccessPayload {
	claims := c.parse(token, c.accessSecret)
	if claims == nil {
		return nil
	}
	sub, okSub := claims["sub"].(string)
	email, okEmail := claims["email"].(string)
	role, okRole := claims["role"].(string)
	if !okSub || !okEmail || !okRole {
		return nil
	}
	name, _ := claims["name"].(string)
	return &AccessPayload{Sub: sub, Email: email, Role: role, Name: name}
}

// VerifyRefresh parses and validates a refresh token under the same
// nil-on-failure contract, requiring sub and tokenId claims.
func (c *Codec) VerifyRefresh(token string) *RefreshPayload {
	claims := c.parse(token, c.refreshSecret)
	if claims == nil {
		return nil
	}
	sub, okSub := claims["sub"].(string)
	tokenID, okID := claims["tokenId"].(string)
	if !okSub || !okID {
		return nil
	}
	return &RefreshPayload{Sub: sub, TokenID: tokenID}
}

func (c *Codec) parse(token string, secret []byte) jwt.MapClaims {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}
