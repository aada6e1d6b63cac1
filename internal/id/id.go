// Package id generates identifiers for simulated exchanges.
package id

import (
	"github.com/google/uuid"
)

// Exchange returns a random UUID v4 string identifying one exchange.
func Exchange() string {
	return uuid.NewString()
}

// Short returns the first 8 hex characters of a new exchange id, for
// compact log lines and report tables.
func Short() string {
	u := uuid.New()
	return u.String()[:8]
}
