// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpMin   = 100000
	otpSpan  = 900000
	alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789@#$%"
)

// GenerateOTP returns a uniformly distributed 6-digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// GeneratePassword returns a random password of the given length drawn from
// an alphabet without look-alike characters.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate password: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
