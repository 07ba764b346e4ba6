package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

var ErrReportNotFound = errors.New("report not found")

// ReportRepo handles the persistence of run reports.
type ReportRepo struct {
	collection *mongo.Collection
}

// NewReportRepo creates a new ReportRepo with the given MongoDB client, database name, and collection name.
func NewReportRepo(client *mongo.Client, dbName, collectionName string) *ReportRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &ReportRepo{
		collection: collection,
	}
}

// EnsureIndexes creates the learner index used by ByLearner.
func (r *ReportRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "learnerId", Value: 1}, {Key: "finishedAt", Value: -1}},
	})
	return err
}

// Save inserts or replaces a report.
func (r *ReportRepo) Save(ctx context.Context, report *i.RunReport) error {
	filter := bson.M{"_id": report.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, report, opts); err != nil {
		return fmt.Errorf("saving report %s: %w", report.ID, err)
	}
	return nil
}

// ByID retrieves a report by its ID.
func (r *ReportRepo) ByID(ctx context.Context, id uuid.UUID) (*i.RunReport, error) {
	var report i.RunReport
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("unexpected error: %w", err)
	}
	return &report, nil
}

// ByLearner lists the reports of a learner, most recent first.
func (r *ReportRepo) ByLearner(ctx context.Context, learnerID uuid.UUID, limit int64) ([]*i.RunReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"learnerId": learnerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("unexpected error: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*i.RunReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}
	return reports, nil
}
