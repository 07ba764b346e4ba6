package i

import (
	"time"

	"github.com/beka-birhanu/vinom-sandbox/identity"
)

// Tokenizer defines methods for generating and decoding learner tokens.
type Tokenizer interface {
	// Generate creates a token for learner with the given expiration duration.
	Generate(learner identity.Learner, expTime time.Duration) (string, error)

	// Decode validates and parses a token, returning the learner it names.
	Decode(token string) (identity.Learner, error)
}
