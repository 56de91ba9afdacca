package user

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "mapproperties/pkg/domain-errors"
)

// HashAadhaar creates a bcrypt hash of a verified Aadhaar number.
func HashAadhaar(number string) (string, error) {
	if number == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "aadhaar number cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(number), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "aadhaar number is too long")
		}
		return "", fmt.Errorf("could not hash aadhaar number: %w", err)
	}
	return string(hashed), nil
}

// MatchesAadhaar reports whether number is the one recorded for u.
func MatchesAadhaar(u *User, number string) (bool, error) {
	if u == nil || u.AadhaarHash == "" {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.AadhaarHash), []byte(number)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("could not verify aadhaar number: %w", err)
	}
	return true, nil
}
