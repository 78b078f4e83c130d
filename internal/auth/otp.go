package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const OTPLength = 6

// GenerateOTP - случайный 6-значный код (с ведущими нулями)
func GenerateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// HashOTP - код хранится только в виде bcrypt хеша
func HashOTP(code string) (string, error) {
	return HashPassword(code)
}

func CheckOTP(code, hash string) bool {
	return PasswordMatches(code, hash)
}
