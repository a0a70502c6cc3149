// Package token produces the opaque single-use tokens embedded in
// invitation links.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// Generator produces URL-safe, high-entropy invitation tokens.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a fresh token carrying 256 bits of entropy. A failing
// entropy source is not a recoverable condition, so it panics.
func (*Generator) Generate() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("token: entropy source unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
