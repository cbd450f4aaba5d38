package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"activity-archive/internal/models"
)

// HistoryReader is the slice of the store the exporter needs.
type HistoryReader interface {
	FindByUsername(ctx context.Context, username string) ([]models.ActivityRecord, error)
}

// Exporter snapshots a user's persisted history as one JSON object in the
// configured object store.
type Exporter struct {
	log   *slog.Logger
	store HistoryReader
	objs  ObjectStore
}

func NewExporter(log *slog.Logger, store HistoryReader, objs ObjectStore) *Exporter {
	return &Exporter{log: log, store: store, objs: objs}
}

type export struct {
	Username   string                  `json:"username"`
	ExportedAt time.Time               `json:"exported_at"`
	Records    []models.ActivityRecord `json:"records"`
}

// ExportUser writes the user's full history and returns the object URL.
// An empty history is an error: there is nothing worth archiving.
func (e *Exporter) ExportUser(ctx context.Context, username string) (string, error) {
	records, err := e.store.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to read history for %s: %w", username, err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no activity records for %s", username)
	}

	now := time.Now().UTC()
	body, err := json.MarshalIndent(export{
		Username:   username,
		ExportedAt: now,
		Records:    records,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export for %s: %w", username, err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", username, now.Format("20060102T150405Z"))
	url, err := e.objs.Put(ctx, key, "application/json", body)
	if err != nil {
		return "", err
	}

	e.log.Info("history_exported", "username", username, "records", len(records), "url", url)
	return url, nil
}
