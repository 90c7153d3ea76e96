package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrAccessDenied is returned for any failure to authenticate a bearer
// token: absent, malformed, expired, or signed with the wrong secret
// (SPEC_FULL.md §7).
var ErrAccessDenied = errors.New("auth: access denied")

// Claims is the JWT payload of SPEC_FULL.md §6, grounded on
// original_source/node/src/jwt.rs's JWTPayload.
type Claims struct {
	User  string `json:"user"`
	Nonce uint32 `json:"nonce"`
	jwt.RegisteredClaims
}

// TokenSource issues and verifies bearer tokens for a single keyring's
// HMAC secret.
type TokenSource struct {
	secret []byte
}

func NewTokenSource(hmacSecretHex string) (*TokenSource, error) {
	secret, err := decodeHexSecret(hmacSecretHex)
	if err != nil {
		return nil, fmt.Errorf("auth: decode hmac secret: %w", err)
	}
	return &TokenSource{secret: secret}, nil
}

// Issue produces a signed token for user, valid from now for ttl.
func (ts *TokenSource) Issue(user string, nonce uint32, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User:  user,
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

// Verify parses and validates a bearer token, returning its claims.
// iat <= now <= exp is enforced per the original's decode_payload check,
// in addition to golang-jwt's own signature verification.
func (ts *TokenSource) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAccessDenied
	}

	now := time.Now()
	if claims.IssuedAt != nil && now.Before(claims.IssuedAt.Time) {
		return nil, ErrAccessDenied
	}
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return nil, ErrAccessDenied
	}
	return claims, nil
}

// UnverifiedUser extracts the `user` claim from a bearer token without
// checking its signature, mirroring the original's decode_payload step:
// the caller's claimed identity is read first so the matching keyring's
// HMAC secret can be looked up and used for the real (signature-checked)
// verification in TokenSource.Verify.
func UnverifiedUser(tokenString string) (string, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return "", ErrAccessDenied
	}
	return claims.User, nil
}

func decodeHexSecret(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return hex.DecodeString(s)
}
