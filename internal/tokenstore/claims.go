package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt returns the exp claim of a credential when it is a JWT.
//
// Credentials are opaque to the client: the signature is NOT verified and
// the result is only a hint. ok is false for non-JWT values or tokens
// without an exp claim.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// KnownExpired reports whether token carries an exp claim that is not
// after now. Tokens without a readable expiry are never known-expired.
func KnownExpired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
