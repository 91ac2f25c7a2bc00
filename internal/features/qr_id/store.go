package qr_id

import (
	"context"

	"flow-metrics/internal/cache"
	"flow-metrics/internal/config"
	"flow-metrics/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterStore hands out monotonically increasing values per key
type CounterStore interface {
	Next(ctx context.Context, key string) (int64, error)
}

type MongoCounterStore struct {
	collection *mongo.Collection
}

func NewMongoCounterStore(db *database.MongodbDB) *MongoCounterStore {
	return &MongoCounterStore{collection: db.DB.Collection(database.CollectionCounters)}
}

func (s *MongoCounterStore) Next(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

type RedisCounterStore struct {
	client *cache.Client
}

func NewRedisCounterStore(client *cache.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Next(ctx context.Context, key string) (int64, error) {
	return s.client.Redis.Incr(ctx, key).Result()
}

// NewCounterStore uses Redis only when QR_ID_STORE=redis and Redis is configured
func NewCounterStore(cfg *config.Config, db *database.MongodbDB, client *cache.Client) CounterStore {
	if cfg.QRIDStore == "redis" && client != nil {
		return NewRedisCounterStore(client)
	}
	return NewMongoCounterStore(db)
}
