package i

import (
	"context"

	"github.com/beka-birhanu/vinom-sandbox/identity"
)

// ScoreEntry is one ranked line of a board.
type ScoreEntry struct {
	Rank      int64  `json:"rank"`
	LearnerID string `json:"learner_id"`
	Name      string `json:"name"`
	Steps     int    `json:"steps"`
}

// Scoreboard ranks learners by their fewest steps on a board.
type Scoreboard interface {
	// Submit records steps for learner and reports whether it improved the learner's best.
	Submit(ctx context.Context, board string, learner identity.Learner, steps int) (bool, error)

	// Top returns up to limit entries, best first.
	Top(ctx context.Context, board string, limit int64) ([]ScoreEntry, error)

	// Count returns the number of learners ranked on board.
	Count(ctx context.Context, board string) (int64, error)
}
