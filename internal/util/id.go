package util

import "github.com/google/uuid"

// NewID returns a new random identifier suitable for conversations and
// tool call correlation.
func NewID() string { return uuid.NewString() }
