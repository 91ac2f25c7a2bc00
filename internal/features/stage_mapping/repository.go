package stage_mapping

import (
	"context"
	"errors"
	"time"

	"flow-metrics/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrMappingNotFound  = errors.New("stage mapping not found")
	ErrDuplicateMapping = errors.New("a mapping with this metric key or active canonical stage already exists")
)

type StageMappingRepository interface {
	Create(ctx context.Context, mapping *StageMapping) error
	Get(ctx context.Context, id string) (*StageMapping, error)
	List(ctx context.Context, activeOnly bool) ([]StageMapping, error)
	FindActiveByCanonicalStage(ctx context.Context, canonicalStage string) (*StageMapping, error)
	Update(ctx context.Context, id string, updates bson.M) (*StageMapping, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type StageMappingRepositoryImpl struct {
	collection *mongo.Collection
}

func NewMongoStageMappingRepository(db *database.MongodbDB) *StageMappingRepositoryImpl {
	return &StageMappingRepositoryImpl{
		collection: db.DB.Collection(database.CollectionStageMappings),
	}
}

func (r *StageMappingRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "metric_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_metric_key"),
		},
		{
			// canonical stage only needs to be unique among active mappings
			Keys: bson.D{{Key: "canonical_stage", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_active_canonical_stage").
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys:    bson.D{{Key: "sort_order", Value: 1}},
			Options: options.Index().SetName("sort_order"),
		},
	})
	return err
}

func (r *StageMappingRepositoryImpl) Create(ctx context.Context, mapping *StageMapping) error {
	if mapping.ID.IsZero() {
		mapping.ID = primitive.NewObjectID()
	}
	now := time.Now()
	mapping.CreatedAt = now
	mapping.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, mapping); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateMapping
		}
		return err
	}
	return nil
}

func (r *StageMappingRepositoryImpl) Get(ctx context.Context, id string) (*StageMapping, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMappingNotFound
	}

	var mapping StageMapping
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&mapping); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMappingNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *StageMappingRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]StageMapping, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	mappings := []StageMapping{}
	if err := cursor.All(ctx, &mappings); err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *StageMappingRepositoryImpl) FindActiveByCanonicalStage(ctx context.Context, canonicalStage string) (*StageMapping, error) {
	var mapping StageMapping
	err := r.collection.FindOne(ctx, bson.M{
		"canonical_stage": canonicalStage,
		"is_active":       true,
	}).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMappingNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *StageMappingRepositoryImpl) Update(ctx context.Context, id string, updates bson.M) (*StageMapping, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMappingNotFound
	}

	updates["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mapping StageMapping
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": updates}, opts).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMappingNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateMapping
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *StageMappingRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMappingNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrMappingNotFound
	}
	return nil
}
