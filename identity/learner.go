// Package identity holds the guest learner model carried by tokens.
package identity

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
)

const (
	namePattern   = `^[a-zA-Z0-9_]+$` // Alphanumeric with underscores
	minNameLength = 3
	maxNameLength = 20
)

var (
	ErrNameTooShort   = errors.New("name too short")
	ErrNameTooLong    = errors.New("name too long")
	ErrInvalidNameFmt = errors.New("invalid name format")
)

var nameRegex = regexp.MustCompile(namePattern)

// Learner is the owner of sessions and scoreboard entries.
type Learner struct {
	ID   uuid.UUID `bson:"_id" json:"learner_id"`
	Name string    `bson:"name" json:"name"`
}

// NewLearner creates a learner with a fresh ID after validating name.
func NewLearner(name string) (Learner, error) {
	if err := validateName(name); err != nil {
		return Learner{}, err
	}
	return Learner{ID: uuid.New(), Name: name}, nil
}

// validateName validates the display name.
func validateName(name string) error {
	if len(name) < minNameLength {
		return ErrNameTooShort
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	if !nameRegex.MatchString(name) {
		return ErrInvalidNameFmt
	}
	return nil
}
