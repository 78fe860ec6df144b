package utils

import (
	"math/rand"
)

const letterDigitBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandStringWithDigitsBytes returns a random string of length n.
func RandStringWithDigitsBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterDigitBytes[rand.Intn(len(letterDigitBytes))]
	}
	return string(b)
}
