package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const codeCharSet = "1234567890"

// GenerateOTPCode generates a random OTP code of the given length
func GenerateOTPCode(length int) (string, error) {
	buffer := make([]byte, length)
	_, err := rand.Read(buffer)
	if err != nil {
		return "", err
	}

	charsetLength := len(codeCharSet)
	for i := 0; i < length; i++ {
		buffer[i] = codeCharSet[int(buffer[i])%charsetLength]
	}
	return string(buffer), nil
}

// HashOTPCode returns the hex encoded SHA-256 digest of a code, so only
// the digest is ever stored.
func HashOTPCode(code string) string {
	digest := sha256.Sum256([]byte(code))
	return hex.EncodeToString(digest[:])
}

// CompareOTPCode checks a plaintext code against a stored digest in
// constant time.
func CompareOTPCode(code string, codeHash string) bool {
	computed := HashOTPCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(codeHash)) == 1
}
