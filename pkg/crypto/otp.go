package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// DefaultOTPDigits is the length of generated one-time codes
const DefaultOTPDigits = 6

var randomRead = rand.Read

// OTPGenerator produces one-time codes
type OTPGenerator interface {
	Generate() (string, error)
}

// RandomOTPGenerator draws uniformly distributed fixed-length numeric codes
type RandomOTPGenerator struct {
	Digits int
}

// NewOTPGenerator creates a generator for codes of the given length
func NewOTPGenerator(digits int) *RandomOTPGenerator {
	if digits <= 0 {
		digits = DefaultOTPDigits
	}
	return &RandomOTPGenerator{Digits: digits}
}

// Generate returns a zero-padded code in [0, 10^Digits)
func (g *RandomOTPGenerator) Generate() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.Digits)), nil)
	n, err := rand.Int(randReader{}, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", g.Digits, n), nil
}

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return randomRead(p) }

// CompareOTP compares two codes in constant time
func CompareOTP(submitted, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

// GenerateRandomToken generates a random token of specified length
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
