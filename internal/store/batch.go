package store

import (
	"github.com/jackc/pgx/v5"

	"activity-archive/internal/models"
)

const upsertSQL = `
INSERT INTO activity_records
	(event_id, username, event_type, repository_name, description, event_time, fetched_at, raw_payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (event_id) DO UPDATE SET
	username        = EXCLUDED.username,
	event_type      = EXCLUDED.event_type,
	repository_name = EXCLUDED.repository_name,
	description     = EXCLUDED.description,
	event_time      = EXCLUDED.event_time,
	fetched_at      = EXCLUDED.fetched_at,
	raw_payload     = EXCLUDED.raw_payload`

// newUpsertBatch queues one upsert per record so a whole fetch result is
// written in a single round trip.
func newUpsertBatch(records []models.ActivityRecord) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertSQL,
			r.EventID, r.Username, r.EventType, r.RepositoryName,
			r.Description, r.EventTime, r.FetchedAt, r.RawPayload)
	}
	return batch
}
