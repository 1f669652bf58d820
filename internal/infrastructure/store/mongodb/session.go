package mongodb

import (
	"context"
	"errors"

	"iacgen/internal/domain/entity"
	"iacgen/internal/domain/repository"
	"iacgen/internal/infrastructure/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSessionRepo persists terminal session results. A result is written
// once per job and never updated afterward; duplicate writes for a job id
// keep the first document.
type MongoSessionRepo struct {
	sessionsCol *mongo.Collection
}

func NewMongoSessionRepo(db *mongo.Database) repository.SessionRepository {
	col := db.Collection("sessions")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "job_id", Value: 1}},
	})

	return &MongoSessionRepo{
		sessionsCol: col,
	}
}

func (r *MongoSessionRepo) Save(ctx context.Context, result *entity.SessionResult) error {
	existing, err := r.GetByJobID(ctx, result.JobID)
	if err != nil {
		return err
	}
	if existing != nil {
		// append-only history; never rewrite a recorded session
		return nil
	}

	if _, err := r.sessionsCol.InsertOne(ctx, result); err != nil {
		metrics.IncError("mongo_session_repo", "save_error")
		return err
	}
	return nil
}

func (r *MongoSessionRepo) GetByJobID(ctx context.Context, jobID string) (*entity.SessionResult, error) {
	var result entity.SessionResult
	err := r.sessionsCol.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		metrics.IncError("mongo_session_repo", "get_error")
		return nil, err
	}
	return &result, nil
}

func (r *MongoSessionRepo) DeleteByJobID(ctx context.Context, jobID string) error {
	if _, err := r.sessionsCol.DeleteOne(ctx, bson.M{"job_id": jobID}); err != nil {
		metrics.IncError("mongo_session_repo", "delete_error")
		return err
	}
	return nil
}
