package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomString returns n random bytes hex-encoded.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
