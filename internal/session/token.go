package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingExpiry = errors.New("token has no exp claim")
	errMalformed     = errors.New("token is not a three-segment JWT")
)

// tokenExpiry decodes the claims segment of a compact JWT and returns its exp
// claim. The header and signature are not inspected. Verification is the
// server's job; the client only needs to know when to refresh.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, errMalformed
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode claims: %w", err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode claims: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, errMissingExpiry
	}

	return exp.Time, nil
}

// isExpired is fail-closed: a token that cannot be decoded counts as expired
func isExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	exp, err := tokenExpiry(token)
	if err != nil {
		return true
	}
	return exp.Before(now)
}

const (
	refreshLeadTime = 5 * time.Minute
	minRefreshDelay = time.Minute
)

// refreshDelay returns how long to wait before refreshing token in the
// background: five minutes before expiry, but never sooner than a minute.
func refreshDelay(token string, now time.Time) (time.Duration, bool) {
	exp, err := tokenExpiry(token)
	if err != nil {
		return 0, false
	}

	delay := exp.Sub(now) - refreshLeadTime
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}
	return delay, true
}
