package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the JWT payload for a session token.
type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer with the given secret and lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the session and stamps its validity
// window onto the session.
func (t *TokenIssuer) Issue(sess *Session) (string, error) {
	if len(t.secret) == 0 {
		return "", fmt.Errorf("session token secret is not configured")
	}
	issued := t.now()
	sess.IssuedAt = issued
	sess.ExpiresAt = issued.Add(t.ttl)

	claims := tokenClaims{
		Email: sess.Email,
		Name:  sess.DisplayName,
		Role:  string(sess.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.IdentityID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token string and rebuilds the session it encodes.
func (t *TokenIssuer) Verify(tokenString string) (*Session, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	sess := &Session{
		IdentityID:  claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        role,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}
