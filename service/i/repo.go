package i

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunReport is the outcome of a session that reached FINISH.
type RunReport struct {
	ID         uuid.UUID `bson:"_id" json:"id"`
	SessionID  uuid.UUID `bson:"sessionId" json:"session_id"`
	LearnerID  uuid.UUID `bson:"learnerId" json:"learner_id"`
	Board      string    `bson:"board" json:"board"`
	Steps      int       `bson:"steps" json:"steps"`
	MemoryUsed int       `bson:"memoryUsed" json:"memory_used"`
	Code       string    `bson:"code" json:"code"`
	FinishedAt time.Time `bson:"finishedAt" json:"finished_at"`
}

// ReportRepo defines the interface for run report persistence.
type ReportRepo interface {
	// Save inserts or replaces a report.
	Save(ctx context.Context, report *RunReport) error

	// ByID retrieves a report by its ID.
	ByID(ctx context.Context, id uuid.UUID) (*RunReport, error)

	// ByLearner lists the reports of a learner, most recent first.
	ByLearner(ctx context.Context, learnerID uuid.UUID, limit int64) ([]*RunReport, error)
}
