package ticket

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes visually ambiguous characters (I, O, 0, 1) so
// confirmation codes survive being read aloud or retyped.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// newCode returns a random confirmation code. Uniqueness is not
// guaranteed here; the persistence layer enforces it and the issuer
// retries on a reported collision.
func newCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ticket.newCode: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(buf), nil
}
