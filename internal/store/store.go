package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"activity-archive/internal/db"
	"activity-archive/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity_records (
	event_id        TEXT PRIMARY KEY,
	username        TEXT NOT NULL,
	event_type      TEXT NOT NULL,
	repository_name TEXT NOT NULL,
	description     TEXT,
	event_time      TIMESTAMPTZ NOT NULL,
	fetched_at      TIMESTAMPTZ NOT NULL,
	raw_payload     TEXT
);
CREATE INDEX IF NOT EXISTS idx_activity_records_username_event_time
	ON activity_records (username, event_time DESC);
CREATE INDEX IF NOT EXISTS idx_activity_records_username_event_type
	ON activity_records (username, event_type);
`

const selectColumns = `event_id, username, event_type, repository_name,
	COALESCE(description, ''), event_time, fetched_at, COALESCE(raw_payload, '{}')`

// ActivityStore is the durable system of record for fetched activity.
// Records are keyed by event id; re-saving an id overwrites the row.
type ActivityStore struct {
	db     *db.DB
	logger *slog.Logger
}

func New(logger *slog.Logger, dbConn *db.DB) *ActivityStore {
	return &ActivityStore{db: dbConn, logger: logger}
}

// Migrate creates the activity_records table and its indexes if missing.
func (s *ActivityStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate activity_records: %w", err)
	}
	return nil
}

// SaveAll upserts the whole batch in one round trip. Idempotent by event id:
// saving the same event twice leaves exactly one row with the latest
// description.
func (s *ActivityStore) SaveAll(ctx context.Context, records []models.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := newUpsertBatch(records)
	br := s.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save activity records: %w", err)
		}
	}

	s.logger.Info("records_saved", "username", records[0].Username, "count", len(records))
	return nil
}

// FindByUsername returns all records for the user, newest first by event time.
func (s *ActivityStore) FindByUsername(ctx context.Context, username string) ([]models.ActivityRecord, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+`
		 FROM activity_records
		 WHERE username = $1
		 ORDER BY event_time DESC`,
		username)
}

// FindByUsernameAndType returns the user's records of one event type,
// newest first.
func (s *ActivityStore) FindByUsernameAndType(ctx context.Context, username, eventType string) ([]models.ActivityRecord, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+`
		 FROM activity_records
		 WHERE username = $1 AND event_type = $2
		 ORDER BY event_time DESC`,
		username, eventType)
}

// FindByUsernameAndRange returns the user's records with event time in
// [start, end], newest first.
func (s *ActivityStore) FindByUsernameAndRange(ctx context.Context, username string, start, end time.Time) ([]models.ActivityRecord, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+`
		 FROM activity_records
		 WHERE username = $1 AND event_time BETWEEN $2 AND $3
		 ORDER BY event_time DESC`,
		username, start, end)
}

// FindDistinctTypes returns the distinct event types recorded for the user.
func (s *ActivityStore) FindDistinctTypes(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT DISTINCT event_type FROM activity_records WHERE username = $1 ORDER BY event_type`,
		username)
	if err != nil {
		return nil, fmt.Errorf("failed to query event types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *ActivityStore) query(ctx context.Context, sql string, args ...any) ([]models.ActivityRecord, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity records: %w", err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var r models.ActivityRecord
		if err := rows.Scan(&r.EventID, &r.Username, &r.EventType, &r.RepositoryName,
			&r.Description, &r.EventTime, &r.FetchedAt, &r.RawPayload); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
