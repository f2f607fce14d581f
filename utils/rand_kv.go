package utils

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	randStr = rand.New(rand.NewSource(time.Now().UnixNano()))
	letters = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
)

// GetTestKey returns a deterministic key for the given ordinal, usable as
// test data.
func GetTestKey(i int) []byte {
	return []byte(fmt.Sprintf("eventstore-key-%09d", i))
}

// RandomValue returns a random value of n letters.
func RandomValue(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[randStr.Intn(len(letters))]
	}
	return append([]byte("eventstore-value-"), b...)
}
