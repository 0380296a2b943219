package session

import (
	"crypto/rand"
)

const (
	// SessionIDLength is the length of generated game session identifiers.
	SessionIDLength = 12

	// JoinRequestCodeLength is the length of generated join request codes.
	JoinRequestCodeLength = 4

	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// IDGenerator produces a new random identifier on each call.
type IDGenerator func() string

// RandomID returns a generator of n-character uppercase alphanumeric strings.
func RandomID(n int) IDGenerator {
	return func() string {
		bytes := make([]byte, n)
		rand.Read(bytes)
		for i, b := range bytes {
			bytes[i] = idAlphabet[int(b)%len(idAlphabet)]
		}
		return string(bytes)
	}
}
