// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultPrefix is prepended to every generated local ID.
var DefaultPrefix = "wr-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Generate returns a new unique ID using the default prefix.
func Generate() (string, error) {
	return GenerateWithPrefix(DefaultPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// PushAlphabet is ordered by ASCII value so push keys compare in creation order.
const PushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

const (
	pushTimeChars   = 8
	pushRandomChars = 12
)

// PushKey returns a key for the shared store: eight characters of encoded
// milliseconds followed by twelve random characters.
func PushKey(now time.Time) (string, error) {
	ms := now.UnixMilli()
	var stamp [pushTimeChars]byte
	for i := pushTimeChars - 1; i >= 0; i-- {
		stamp[i] = PushAlphabet[ms%64]
		ms /= 64
	}
	suffix, err := nanoid.Generate(PushAlphabet, pushRandomChars)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return string(stamp[:]) + suffix, nil
}
