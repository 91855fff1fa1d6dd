package helpers

import "github.com/google/uuid"

// UUIDGenerator produces UUID v4 identifiers for new aggregates.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
