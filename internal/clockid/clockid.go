// Package clockid provides the broker's deterministic wall-clock and
// cryptographically strong token/PIN generation (spec.md §4.1).
package clockid

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"
)

// Source is the clock and randomness dependency injected into every
// component that needs "now" or a fresh secret, so tests can substitute
// a deterministic fake instead of reaching for time.Now/crypto/rand directly.
type Source interface {
	Now() time.Time
	NewToken() string
	NewAuthKey() string
	NewPIN(length int) string
}

type source struct{}

// New returns the production Source: real wall clock, real CSPRNG.
func New() Source {
	return source{}
}

func (source) Now() time.Time {
	return time.Now().UTC()
}

// NewToken returns a 128-bit random value encoded URL-safe, used as the
// QR token and as the bearer session's opaque identifier.
func (source) NewToken() string {
	return randomToken(16)
}

// NewAuthKey returns a 128-bit opaque user secret, same shape as NewToken
// but kept as a distinct method so call sites read as intent, not encoding.
func (source) NewAuthKey() string {
	return randomToken(16)
}

func randomToken(nbytes int) string {
	buf := make([]byte, nbytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("clockid: failed to read random bytes: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// NewPIN returns a zero-padded decimal string of the given length, sampled
// uniformly over [0, 10^length) via rejection sampling so no digit value is
// biased by the usual mod-collision of big.Int % 10^length.
func (source) NewPIN(length int) string {
	if length <= 0 {
		panic("clockid: pin length must be positive")
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(fmt.Errorf("clockid: failed to generate PIN: %w", err))
	}
	return fmt.Sprintf("%0*d", length, n)
}
