// Package id generates identifiers for users, sessions and book copies.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for nanoid based identifiers.
const (
	PrefixUser    = "usr"
	PrefixSession = "ses"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "usr-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewInstanceID returns a random UUID for a physical book copy.
// Copy IDs appear on labels and in URLs, so they follow the common UUID form.
func NewInstanceID() string {
	return uuid.NewString()
}

// ParseInstanceID validates and canonicalizes a copy ID taken from a URL.
func ParseInstanceID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse instance id: %w", err)
	}
	return u.String(), nil
}
