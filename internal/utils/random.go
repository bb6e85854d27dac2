package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomString returns a base64url string built from the given number
// of random bytes. 32 bytes = 256 bits of entropy, 43 characters.
func RandomString(bytes int) string {
	b := make([]byte, bytes)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
