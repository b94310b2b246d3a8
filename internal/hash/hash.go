package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ErrPasswordTooLong wraps bcrypt.ErrPasswordTooLong so callers can match
// either.
var ErrPasswordTooLong = fmt.Errorf("password longer than %d bytes: %w", MaxPasswordBytes, bcrypt.ErrPasswordTooLong)

// HashPassword bcrypts password. Inputs over MaxPasswordBytes are rejected
// with ErrPasswordTooLong instead of being truncated.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches hash. Passwords that could
// never have been hashed fail without running bcrypt.
func CheckPassword(hash, password string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
