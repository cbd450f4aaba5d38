package activity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"activity-archive/internal/models"
)

// ErrNoStore is returned by the history operations when the service was
// built without a durable store.
var ErrNoStore = errors.New("no activity store configured")

// EventFetcher retrieves events from the upstream source.
type EventFetcher interface {
	Fetch(ctx context.Context, username string) ([]models.Event, error)
	Validate(ctx context.Context, username string) bool
}

// EventCache serves recently fetched event sequences.
type EventCache interface {
	Get(ctx context.Context, username string) ([]models.Event, bool)
	Put(ctx context.Context, username string, events []models.Event)
	Invalidate(ctx context.Context, username string) bool
}

// RecordStore queries the durable record of fetched activity.
type RecordStore interface {
	FindByUsername(ctx context.Context, username string) ([]models.ActivityRecord, error)
	FindByUsernameAndType(ctx context.Context, username, eventType string) ([]models.ActivityRecord, error)
	FindByUsernameAndRange(ctx context.Context, username string, start, end time.Time) ([]models.ActivityRecord, error)
	FindDistinctTypes(ctx context.Context, username string) ([]string, error)
}

// Service composes cache, fetcher, store, and persister into the public
// retrieval operations. It owns the fetch-or-serve decision; rendering stays
// with the caller, which invokes Render per returned event.
type Service struct {
	log       *slog.Logger
	fetcher   EventFetcher
	cache     EventCache // may be nil: latency loss only, never correctness
	store     RecordStore
	persister *Persister
}

func NewService(log *slog.Logger, fetcher EventFetcher, cache EventCache, store RecordStore, persister *Persister) *Service {
	return &Service{
		log:       log,
		fetcher:   fetcher,
		cache:     cache,
		store:     store,
		persister: persister,
	}
}

// GetUserActivity returns the user's recent events, serving from cache when
// possible. forceRefresh skips the cache lookup entirely. A fresh fetch
// triggers two detached side effects, the cache write-through and the store
// persistence; neither delays nor fails this call.
func (s *Service) GetUserActivity(ctx context.Context, username string, forceRefresh bool) ([]models.Event, error) {
	if !forceRefresh && s.cache != nil {
		if events, ok := s.cache.Get(ctx, username); ok && len(events) > 0 {
			return events, nil
		}
	}
	return s.fetchAndRecord(ctx, username)
}

func (s *Service) fetchAndRecord(ctx context.Context, username string) ([]models.Event, error) {
	events, err := s.fetcher.Fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	// an empty result is never cached: a cached empty entry would be
	// indistinguishable from a miss on the read side
	if s.cache != nil && len(events) > 0 {
		go s.writeThrough(username, events)
	}
	if s.persister != nil {
		s.persister.Enqueue(username, events, time.Now().UTC())
	}

	return events, nil
}

// writeThrough runs detached from the request; it gets its own deadline so
// an abandoned caller cannot cancel the cache fill.
func (s *Service) writeThrough(username string, events []models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.cache.Put(ctx, username, events)
}

// GetFilteredActivity returns the user's recent events of one type,
// case-insensitive exact match.
func (s *Service) GetFilteredActivity(ctx context.Context, username, eventType string) ([]models.Event, error) {
	events, err := s.GetUserActivity(ctx, username, false)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Event, 0, len(events))
	for _, e := range events {
		if strings.EqualFold(e.Type, eventType) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// GetHistoricalActivity reads the durable record only; it never falls back
// to a network fetch.
func (s *Service) GetHistoricalActivity(ctx context.Context, username string) ([]models.ActivityRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.FindByUsername(ctx, username)
}

// GetHistoricalActivityRange reads the durable record within [start, end].
func (s *Service) GetHistoricalActivityRange(ctx context.Context, username string, start, end time.Time) ([]models.ActivityRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.FindByUsernameAndRange(ctx, username, start, end)
}

// GetAvailableEventTypes returns the distinct event types recorded for the
// user. Like the history read, it never reaches for the network.
func (s *Service) GetAvailableEventTypes(ctx context.Context, username string) ([]string, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.FindDistinctTypes(ctx, username)
}

// ValidateUser reports whether the username exists upstream; all failures
// collapse to false.
func (s *Service) ValidateUser(ctx context.Context, username string) bool {
	return s.fetcher.Validate(ctx, username)
}

// InvalidateCache removes the user's cache entry and reports whether one
// existed.
func (s *Service) InvalidateCache(ctx context.Context, username string) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Invalidate(ctx, username)
}
