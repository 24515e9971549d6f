package affiliates

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet has exactly 32 characters so a random byte masked with 0x1f
// maps to it without modulo bias. 0, O, 1 and I are left out: the code is
// shared by voice and print, and those glyphs get confused.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferralCode returns a random code of the given length drawn from the
// restricted alphabet. Uniqueness is enforced by the database; callers retry
// on collision with a bounded attempt count.
func NewReferralCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&0x1f]
	}
	return string(buf), nil
}
