// Package auth implements the shared-secret bearer check guarding the
// advisory endpoint.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

var (
	// ErrMissingHeader means the Authorization header is absent or does not
	// start with the literal "Bearer " prefix.
	ErrMissingHeader = errors.New("missing or malformed Authorization header")
	// ErrServerMisconfigured means no secret token is configured in the
	// running process. Surfaced as a server fault, not a deny.
	ErrServerMisconfigured = errors.New("no bearer token configured")
	// ErrInvalidToken means the presented token does not match the secret.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Guard holds the configured shared secret.
type Guard struct {
	secret string
}

func NewGuard(secret string) *Guard {
	return &Guard{secret: secret}
}

// Authorize checks the presented Authorization header value. Checks run in
// fixed order: header shape, configured secret present, token match. The
// token comparison is exact and case-sensitive, with no trimming beyond the
// fixed prefix, and runs in constant time.
func (g *Guard) Authorize(header string) error {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ErrMissingHeader
	}
	if g.secret == "" {
		return ErrServerMisconfigured
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
