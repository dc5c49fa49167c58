package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

const (
	minPasswordLength = 8

	// unusablePrefix marks a stored password that can never authenticate.
	unusablePrefix = "!"
)

// bcryptCost is a var so tests can lower it.
var bcryptCost = 12

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash.
func VerifyPassword(hashedPassword, password string) error {
	if !IsUsablePassword(hashedPassword) {
		return ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// MakeUnusablePassword returns a random marker value for accounts created
// through an external provider.
func MakeUnusablePassword() (string, error) {
	b := make([]byte, 30)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return unusablePrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// IsUsablePassword reports whether hashedPassword can be used to log in.
func IsUsablePassword(hashedPassword string) bool {
	return hashedPassword != "" && !strings.HasPrefix(hashedPassword, unusablePrefix)
}
