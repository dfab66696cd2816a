// Package importrun records bulk ingestion runs so clients can poll their
// progress and operators can see past outcomes.
package importrun

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("import run not found")

// Counts are the totals reported when a run finishes.
type Counts struct {
	Processed      int
	FoldersCreated int
	NodesCreated   int
	NodesUpdated   int
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("import_runs")}
}

// Start records a new running import of total rows.
func (s *Store) Start(ctx context.Context, source, startedBy string, total int) (*models.ImportRun, error) {
	run := models.ImportRun{
		ID:        primitive.NewObjectID(),
		Source:    source,
		StartedBy: startedBy,
		Status:    models.ImportRunning,
		Total:     total,
		StartedAt: time.Now(),
	}
	if total == 0 {
		run.Progress = 1
	}
	if _, err := s.c.InsertOne(ctx, run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Progress updates the processed count of a running import.
func (s *Store) Progress(ctx context.Context, id primitive.ObjectID, done, total int) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ImportRunning},
		bson.M{"$set": bson.M{
			"processed": done,
			"total":     total,
			"progress":  fraction(done, total),
		}})
	return err
}

// Complete marks a run finished successfully.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, c Counts) error {
	return s.finish(ctx, id, models.ImportCompleted, c, "")
}

// Fail marks a run failed. Counts cover the rows applied before the error.
func (s *Store) Fail(ctx context.Context, id primitive.ObjectID, c Counts, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(ctx, id, models.ImportFailed, c, msg)
}

func (s *Store) finish(ctx context.Context, id primitive.ObjectID, status models.ImportStatus, c Counts, msg string) error {
	set := bson.M{
		"status":          status,
		"processed":       c.Processed,
		"folders_created": c.FoldersCreated,
		"nodes_created":   c.NodesCreated,
		"nodes_updated":   c.NodesUpdated,
		"finished_at":     time.Now(),
	}
	if status == models.ImportCompleted {
		set["progress"] = 1.0
	}
	if msg != "" {
		set["error"] = msg
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID loads an import run.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ImportRun, error) {
	var run models.ImportRun
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns the most recent runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	runs := []models.ImportRun{}
	if err := cur.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteFinishedBefore removes completed and failed runs that finished
// before cutoff. Running imports are never removed.
func (s *Store) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":      bson.M{"$in": bson.A{models.ImportCompleted, models.ImportFailed}},
		"finished_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(done) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}
