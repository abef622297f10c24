package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// GenerateCode returns an uppercase hex string built from n random bytes.
// Used for payment order nonces and ticket check-in codes.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// HashCheckinCode hashes a ticket check-in code for storage. Only the
// hash is persisted; the raw code is shown to the holder exactly once.
func HashCheckinCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyCheckinCode compares a presented check-in code against the
// stored hash.
func VerifyCheckinCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
