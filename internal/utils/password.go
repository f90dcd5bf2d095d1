package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6 // counted in runes, not bytes

// PasswordOK reports whether plain is long enough to register with and
// short enough for bcrypt, which ignores bytes past 72.
func PasswordOK(plain string) bool {
	return utf8.RuneCountInString(plain) >= MinPasswordLen && len(plain) <= 72
}

// HashPassword returns a bcrypt hash of plain at the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost) // salt is generated and embedded in the hash
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil // constant-time compare
}
