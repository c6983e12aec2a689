package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/polytech/coursedesk/internal/model"
)

// Claims is the payload of the token handed to the browser. It names the
// session; the upstream access token stays on the server.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// Signer issues and verifies BFF session tokens.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer with an HMAC secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign creates an HS256 token whose jti is the session id.
func (s *Signer) Sign(sess *Session) (string, error) {
	if !sess.Authenticated() {
		return "", errors.New("cannot sign anonymous session")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role: sess.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Expiry picks the session expiry: the upstream token's exp claim when it
// carries one in the future, otherwise now+fallback. The upstream signature
// cannot be checked here; the upstream API does that on every call.
func Expiry(upstreamToken string, now time.Time, fallback time.Duration) time.Time {
	def := now.Add(fallback)

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(upstreamToken, &claims); err != nil {
		return def
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return def
	}
	return claims.ExpiresAt.Time
}
