package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/memorank/internal/domain"
)

// Normalize concatenates the template's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(t domain.Template) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	front := normalizePart(t.Front)
	back := normalizePart(t.Back)
	category := normalizePart(t.Category)

	// Joined with newlines so adjacent fields can never run together and
	// collide with a differently-split template.
	return strings.Join([]string{front, back, category}, "\n")
}

// Hash normalizes the template and returns its SHA-256 hash as a hex string.
// The hash identifies template content across sources and re-imports.
func Hash(t domain.Template) string {
	normalized := Normalize(t)
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}
