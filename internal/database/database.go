package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"flow-metrics/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// Collection names shared by the feature repositories
const (
	CollectionStageMappings = "flow_metrics_config"
	CollectionStageEvents   = "deal_stage_events"
	CollectionSyncLogs      = "sync_logs"
	CollectionAuditLogs     = "audit_logs"
	CollectionCounters      = "counters"
	CollectionLogs          = "logs"
)

type MongodbDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

const connectTimeout = 10 * time.Second

// NewDatabase connects to MongoDB and disconnects on fx stop
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.AppId).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Printf("Connected to MongoDB (%s)", cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{Client: client, DB: client.Database(cfg.DBName)}, nil
}
