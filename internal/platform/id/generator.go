package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for runs and notification intents.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// Static always returns the same id. Handy in tests.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
