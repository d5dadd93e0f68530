// Package otp generates and compares the numeric one-time passcodes used by the
// registration, login and password-reset flows.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Digits is the length of every generated code.
const Digits = 6

var codeSpace = big.NewInt(1_000_000)

// Generate returns a uniformly distributed 6-digit numeric code (e.g. "042917").
// Uses crypto/rand; leading zeros are kept.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), nil
}

// Hash returns a SHA-256 hash of the code, hex-encoded. Ledgers store only this value.
func Hash(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// Equal performs constant-time comparison of the provided code's hash with the stored hash.
func Equal(providedCode, storedHash string) bool {
	providedHash := Hash(providedCode)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

// WellFormed reports whether code is exactly Digits ASCII digits.
func WellFormed(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
