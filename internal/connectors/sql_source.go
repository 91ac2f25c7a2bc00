package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLSource reads transitions from an external deal_stage_events table
type SQLSource struct {
	dbType string // "postgres" or "mysql"
	db     *sql.DB
}

// NewSQLSource opens and pings the database behind dsn
func NewSQLSource(ctx context.Context, dbType, dsn string) (*SQLSource, error) {
	if dbType != "postgres" && dbType != "mysql" {
		return nil, fmt.Errorf("unsupported sql source %q", dbType)
	}
	if dsn == "" {
		return nil, fmt.Errorf("missing %s connection string", dbType)
	}

	db, err := sql.Open(dbType, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	return &SQLSource{dbType: dbType, db: db}, nil
}

func (s *SQLSource) Name() string { return s.dbType }

func (s *SQLSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLSource) FetchTransitions(ctx context.Context, since time.Time) ([]StageTransition, error) {
	query, args := transitionQuery(s.dbType, since)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []StageTransition
	for rows.Next() {
		var t StageTransition
		var name sql.NullString
		var left sql.NullTime
		if err := rows.Scan(&t.DealID, &t.PipelineID, &t.StageID, &name, &t.EnteredAt, &left); err != nil {
			return nil, fmt.Errorf("failed to scan stage event row: %w", err)
		}
		t.StageName = name.String
		if left.Valid {
			l := left.Time.UTC()
			t.LeftAt = &l
		}
		t.EnteredAt = t.EnteredAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func transitionQuery(dbType string, since time.Time) (string, []interface{}) {
	query := "SELECT deal_id, pipeline_id, stage_id, stage_name, entered_at, left_at FROM deal_stage_events"
	var args []interface{}
	if !since.IsZero() {
		query += fmt.Sprintf(" WHERE entered_at >= %s OR left_at >= %s", placeholder(dbType, 1), placeholder(dbType, 2))
		args = append(args, since, since)
	}
	return query + " ORDER BY deal_id, entered_at", args
}

func placeholder(dbType string, index int) string {
	if dbType == "postgres" {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}
