package stage_event

import (
	"context"
	"errors"
	"time"

	"flow-metrics/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StageEventRepository interface {
	FindByStageID(ctx context.Context, stageID int) ([]StageEvent, error)
	FindByDealID(ctx context.Context, dealID int) ([]StageEvent, error)
	Upsert(ctx context.Context, events []StageEvent) (int, error)
	LatestEnteredAt(ctx context.Context) (time.Time, error)
	EnsureIndexes(ctx context.Context) error
}

type StageEventRepositoryImpl struct {
	collection *mongo.Collection
}

func NewStageEventRepository(db *database.MongodbDB) StageEventRepository {
	return &StageEventRepositoryImpl{
		collection: db.DB.Collection(database.CollectionStageEvents),
	}
}

func (r *StageEventRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "deal_id", Value: 1},
				{Key: "stage_id", Value: 1},
				{Key: "entered_at", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_deal_stage_entry"),
		},
		{
			Keys:    bson.D{{Key: "stage_id", Value: 1}, {Key: "entered_at", Value: 1}},
			Options: options.Index().SetName("stage_entered"),
		},
	})
	return err
}

func (r *StageEventRepositoryImpl) FindByStageID(ctx context.Context, stageID int) ([]StageEvent, error) {
	return r.find(ctx, bson.M{"stage_id": stageID})
}

func (r *StageEventRepositoryImpl) FindByDealID(ctx context.Context, dealID int) ([]StageEvent, error) {
	return r.find(ctx, bson.M{"deal_id": dealID})
}

func (r *StageEventRepositoryImpl) find(ctx context.Context, filter bson.M) ([]StageEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "entered_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []StageEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Upsert writes events keyed by (deal_id, stage_id, entered_at). Exit fields
// are only ever set, never cleared, so a replayed open event cannot reopen a
// closed one.
func (r *StageEventRepositoryImpl) Upsert(ctx context.Context, events []StageEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(events))
	for _, e := range events {
		set := bson.M{
			"pipeline_id": e.PipelineID,
			"stage_name":  e.StageName,
		}
		if e.LeftAt != nil {
			set["left_at"] = *e.LeftAt
		}
		if e.DurationSeconds != nil {
			set["duration_seconds"] = *e.DurationSeconds
		}

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"deal_id": e.DealID, "stage_id": e.StageID, "entered_at": e.EnteredAt}).
			SetUpdate(bson.M{"$set": set}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return int(result.UpsertedCount + result.ModifiedCount), nil
}

func (r *StageEventRepositoryImpl) LatestEnteredAt(ctx context.Context) (time.Time, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "entered_at", Value: -1}})

	var latest StageEvent
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&latest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return latest.EnteredAt, nil
}
