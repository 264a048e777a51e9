package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	MinPinLength = 4
	MaxPinLength = 6
)

var bcryptGenerateFromPassword = bcrypt.GenerateFromPassword

// ValidatePIN reports whether pin is 4 to 6 ASCII digits
func ValidatePIN(pin string) bool {
	if len(pin) < MinPinLength || len(pin) > MaxPinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// HashPIN hashes a pin using bcrypt
func HashPIN(pin string) (string, error) {
	bytes, err := bcryptGenerateFromPassword([]byte(pin), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(bytes), nil
}

// CheckPIN compares a pin with a hash
func CheckPIN(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}
