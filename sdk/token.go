package sdk

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential tokens are bearer JWTs issued by the server. The claims are
// decoded without signature verification: the server remains authoritative
// and will reject a tampered token; the client only needs the subject for
// identity-change detection and the expiry for proactive UX.

// identityFromToken extracts the user id (subject claim) from a bearer token.
func identityFromToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("token is empty")
	}
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// tokenExpiresWithin reports whether the token is expired or expires inside
// the window. Tokens without an exp claim are treated as non-expiring; the
// server will 401 if needed.
func tokenExpiresWithin(token string, window time.Duration) bool {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) <= window
}
