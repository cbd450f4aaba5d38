package models

import "time"

// ActivityRecord is the durable projection of an Event. Keyed by EventID;
// re-saving the same id overwrites the previous row.
type ActivityRecord struct {
	EventID        string    `json:"event_id"`
	Username       string    `json:"username"`
	EventType      string    `json:"event_type"`
	RepositoryName string    `json:"repository_name"`
	Description    string    `json:"description"`
	EventTime      time.Time `json:"event_time"`
	FetchedAt      time.Time `json:"fetched_at"`
	RawPayload     string    `json:"raw_payload,omitempty"`
}
