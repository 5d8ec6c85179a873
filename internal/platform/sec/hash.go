// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used for passwords and OTP codes.
const HashCost = 10

// MaxSecretBytes is the longest input bcrypt accepts.
const MaxSecretBytes = 72

// HashSecret hashes a plain-text secret using bcrypt with a fresh salt.
// Two calls with the same input never return the same hash.
func HashSecret(plainText string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainText), HashCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifySecret compares a plain-text secret with its bcrypt hash.
// An empty hash never verifies.
func VerifySecret(plainText, existingHash string) bool {
	if existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainText))
	return err == nil
}
