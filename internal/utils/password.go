package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for PINs and OTPs. Tests lower it to bcrypt.MinCost.
var HashCost = bcrypt.DefaultCost

// HashSecret hashes a PIN or one-time code using bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), HashCost)
	return string(hash), err
}

// CheckSecretHash compares a plaintext secret with a bcrypt hash.
func CheckSecretHash(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
