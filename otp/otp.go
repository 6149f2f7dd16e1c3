// Package otp generates one-time codes and limits how often they can be tried.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const Digits = 6

var maxCode = big.NewInt(1_000_000)

// Generate returns a uniformly random zero-padded 6 digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, maxCode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), nil
}
