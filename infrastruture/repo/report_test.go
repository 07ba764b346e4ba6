package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

// mongoClient connects to MONGO_URI or skips the test.
func mongoClient(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestReportRepo(t *testing.T) {
	client := mongoClient(t)
	ctx := context.Background()
	dbName := "vinom_sandbox_test"
	collection := "reports_" + uuid.NewString()
	t.Cleanup(func() { _ = client.Database(dbName).Collection(collection).Drop(ctx) })

	r := NewReportRepo(client, dbName, collection)
	require.NoError(t, r.EnsureIndexes(ctx))

	learner := uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)
	reports := make([]*i.RunReport, 3)
	for n := range reports {
		reports[n] = &i.RunReport{
			ID:         uuid.New(),
			SessionID:  uuid.New(),
			LearnerID:  learner,
			Board:      "kruskal-21x21",
			Steps:      100 + n,
			MemoryUsed: 2,
			Code:       "move(1)",
			FinishedAt: base.Add(time.Duration(n) * time.Minute),
		}
		require.NoError(t, r.Save(ctx, reports[n]))
	}

	t.Run("ByID", func(t *testing.T) {
		got, err := r.ByID(ctx, reports[1].ID)
		require.NoError(t, err)
		assert.Equal(t, reports[1], got)
	})

	t.Run("ByID missing", func(t *testing.T) {
		_, err := r.ByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("Save replaces", func(t *testing.T) {
		updated := *reports[0]
		updated.Steps = 42
		require.NoError(t, r.Save(ctx, &updated))

		got, err := r.ByID(ctx, updated.ID)
		require.NoError(t, err)
		assert.Equal(t, 42, got.Steps)
	})

	t.Run("ByLearner is most recent first", func(t *testing.T) {
		got, err := r.ByLearner(ctx, learner, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, reports[2].ID, got[0].ID)
		assert.Equal(t, reports[1].ID, got[1].ID)
	})
}
