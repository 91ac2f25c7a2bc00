package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the writer goroutine
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Caller  string
	Fields  map[string]interface{}
	Time    time.Time
}

// LogStore persists log records
type LogStore interface {
	Insert(ctx context.Context, record common_models.Log) error
}

type MongoLogStore struct {
	collection *mongo.Collection
}

func NewMongoLogStore(mongodb *database.MongodbDB) LogStore {
	return &MongoLogStore{collection: mongodb.DB.Collection(database.CollectionLogs)}
}

func (s *MongoLogStore) Insert(ctx context.Context, record common_models.Log) error {
	_, err := s.collection.InsertOne(ctx, record)
	return err
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	store   LogStore
	logChan chan LogEntry
	appId   string
	done    chan struct{}
}

func NewDBLogWriter(store LogStore, appId string) *DBLogWriter {
	writer := &DBLogWriter{
		store:   store,
		logChan: make(chan LogEntry, 1000),
		appId:   appId,
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks the caller; entries are dropped when the buffer is full
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Fprintln(os.Stderr, "DB log channel full, dropping:", entry.Message)
	}
}

// Close stops accepting entries and waits for the buffer to drain
func (w *DBLogWriter) Close() {
	close(w.logChan)
	<-w.done
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for entry := range w.logChan {
		createdOn := entry.Time
		if createdOn.IsZero() {
			createdOn = time.Now()
		}

		record := common_models.Log{
			AppId:        w.appId,
			Level:        entry.Level.String(),
			Message:      entry.Message,
			Caller:       entry.Caller,
			Fields:       entry.Fields,
			CreatedOnUtc: createdOn.UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.store.Insert(ctx, record); err != nil {
			fmt.Fprintln(os.Stderr, "failed to persist log entry:", err)
		}
		cancel()
	}
}
