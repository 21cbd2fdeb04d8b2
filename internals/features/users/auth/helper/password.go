package helpers

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)

	ErrWeakPassword = errors.New("password must be at least 8 characters and contain letters and numbers")
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// CheckPasswordPolicy: minimum 8 characters, alphanumeric.
func CheckPasswordPolicy(password string) error {
	if len(password) < 8 || !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
