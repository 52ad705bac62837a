package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckAdminPassword compares a submitted password against the configured
// admin credential.  A bcrypt hash takes precedence over the plain shared
// secret; the plain comparison is constant time.
func CheckAdminPassword(submitted, plain, hash string) bool {
	if submitted == "" {
		return false
	}
	if hash != "" {
		return VerifyPassword(hash, submitted)
	}
	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(plain)) == 1
}
