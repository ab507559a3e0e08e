package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

var NowFunc = time.Now // mockable

// TokenExpiry peeks at the access token's `exp` claim without verifying the
// signature; verification is the upstream API's job, the portal only needs a
// hint for proactive refresh.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}

// Stale reports whether the access token expires within the configured stale
// window (or already has). Opaque/unparsable tokens are never stale: their
// expiry is only discoverable through a 401.
func (s *Store) Stale(token string) bool {
	if token == "" {
		return false
	}
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return exp.Sub(NowFunc()) < s.conf.RefreshStaleWindow
}
