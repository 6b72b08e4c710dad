package util

import gonanoid "github.com/matoous/go-nanoid/v2"

// NewID returns a URL-safe random identifier.
func NewID() (string, error) {
	return gonanoid.New()
}
