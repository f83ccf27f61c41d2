// Package generator produces the short codes that identify URLs.
package generator

import (
	"math/rand/v2"
	"regexp"
)

// alphabet is the 62-symbol set codes are drawn from.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength is the fixed length of generated codes. 62^6 possible values
// make random collisions rare; the service still bounds its retries.
const CodeLength = 6

var validCode = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

// CodeGenerator produces random fixed-length codes.
type CodeGenerator struct {
	length int
}

func New() *CodeGenerator {
	return &CodeGenerator{length: CodeLength}
}

// Generate returns a new random code. Calls are independent; uniqueness
// against the store is the caller's responsibility.
func (g *CodeGenerator) Generate() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}

	return string(b)
}

// IsValidCustom reports whether a caller-supplied code is well-formed:
// non-empty, alphanumeric, and no longer than the schema allows.
func IsValidCustom(code string) bool {
	if code == "" || len(code) > 10 {
		return false
	}

	return validCode.MatchString(code)
}
