package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"activity-archive/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	calls  int
	exists bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, username string) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeFetcher) Validate(ctx context.Context, username string) bool {
	return f.exists
}

func (f *fakeFetcher) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]models.Event
	puts    int
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]models.Event)}
}

func (c *fakeCache) Get(ctx context.Context, username string) ([]models.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	events, ok := c.entries[username]
	return events, ok
}

func (c *fakeCache) Put(ctx context.Context, username string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[username] = events
}

func (c *fakeCache) Invalidate(ctx context.Context, username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[username]
	delete(c.entries, username)
	return ok
}

func (c *fakeCache) getCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func (c *fakeCache) putCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

type fakeRecordStore struct {
	mu      sync.Mutex
	records []models.ActivityRecord
	types   []string
	queries int
}

func (s *fakeRecordStore) FindByUsername(ctx context.Context, username string) ([]models.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return s.records, nil
}

func (s *fakeRecordStore) FindByUsernameAndType(ctx context.Context, username, eventType string) ([]models.ActivityRecord, error) {
	return s.records, nil
}

func (s *fakeRecordStore) FindByUsernameAndRange(ctx context.Context, username string, start, end time.Time) ([]models.ActivityRecord, error) {
	return s.records, nil
}

func (s *fakeRecordStore) FindDistinctTypes(ctx context.Context, username string) ([]string, error) {
	return s.types, nil
}

func someEvents(types ...string) []models.Event {
	events := make([]models.Event, 0, len(types))
	for i, t := range types {
		events = append(events, models.Event{
			ID:        string(rune('a' + i)),
			Type:      t,
			CreatedAt: time.Now().UTC(),
			Actor:     models.Actor{Login: "alice"},
			Repo:      models.Repo{Name: "acme/widgets"},
		})
	}
	return events
}

func TestGetUserActivity_ServesCacheHit(t *testing.T) {
	cached := someEvents("PushEvent")
	c := newFakeCache()
	c.entries["alice"] = cached
	f := &fakeFetcher{events: someEvents("WatchEvent")}

	svc := NewService(testLogger(), f, c, nil, nil)

	events, err := svc.GetUserActivity(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "PushEvent" {
		t.Errorf("expected cached events, got %+v", events)
	}
	if f.fetchCalls() != 0 {
		t.Errorf("expected no fetch on cache hit, got %d calls", f.fetchCalls())
	}
}

func TestGetUserActivity_ForceRefreshSkipsCache(t *testing.T) {
	c := newFakeCache()
	c.entries["alice"] = someEvents("PushEvent")
	f := &fakeFetcher{events: someEvents("WatchEvent")}

	svc := NewService(testLogger(), f, c, nil, nil)

	events, err := svc.GetUserActivity(context.Background(), "alice", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "WatchEvent" {
		t.Errorf("expected fresh events, got %+v", events)
	}
	if c.getCalls() != 0 {
		t.Error("expected cache lookup to be skipped on force refresh")
	}
	if f.fetchCalls() != 1 {
		t.Errorf("expected exactly one fetch, got %d", f.fetchCalls())
	}
}

func TestGetUserActivity_EmptyCacheEntryTriggersFetch(t *testing.T) {
	// an empty cached sequence must not mask a refetch
	c := newFakeCache()
	c.entries["alice"] = []models.Event{}
	f := &fakeFetcher{events: someEvents("PushEvent")}

	svc := NewService(testLogger(), f, c, nil, nil)

	events, err := svc.GetUserActivity(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected fetched events, got %+v", events)
	}
	if f.fetchCalls() != 1 {
		t.Errorf("expected a fetch despite the cache entry, got %d calls", f.fetchCalls())
	}
}

func TestGetUserActivity_FetchWritesThroughToCache(t *testing.T) {
	c := newFakeCache()
	f := &fakeFetcher{events: someEvents("PushEvent")}

	svc := NewService(testLogger(), f, c, nil, nil)

	if _, err := svc.GetUserActivity(context.Background(), "alice", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the write-through is detached; give it a moment
	deadline := time.Now().Add(2 * time.Second)
	for c.putCalls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.putCalls() != 1 {
		t.Errorf("expected one cache write, got %d", c.putCalls())
	}
}

func TestGetUserActivity_FetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("upstream exploded")
	f := &fakeFetcher{err: wantErr}

	svc := NewService(testLogger(), f, newFakeCache(), nil, nil)

	_, err := svc.GetUserActivity(context.Background(), "alice", false)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}

func TestGetUserActivity_WorksWithoutCache(t *testing.T) {
	f := &fakeFetcher{events: someEvents("PushEvent")}
	svc := NewService(testLogger(), f, nil, nil, nil)

	events, err := svc.GetUserActivity(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected events without a cache, got %+v", events)
	}
}

func TestGetFilteredActivity_CaseInsensitive(t *testing.T) {
	f := &fakeFetcher{events: someEvents("PushEvent", "WatchEvent", "PushEvent")}
	svc := NewService(testLogger(), f, nil, nil, nil)

	events, err := svc.GetFilteredActivity(context.Background(), "alice", "pushevent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 push events, got %d", len(events))
	}
	for _, e := range events {
		if e.Type != "PushEvent" {
			t.Errorf("unexpected event type %s", e.Type)
		}
	}
}

func TestHistoricalOperations_BypassFetcher(t *testing.T) {
	f := &fakeFetcher{events: someEvents("PushEvent")}
	st := &fakeRecordStore{
		records: []models.ActivityRecord{{EventID: "1", Username: "alice"}},
		types:   []string{"PushEvent", "WatchEvent"},
	}

	svc := NewService(testLogger(), f, nil, st, nil)

	records, err := svc.GetHistoricalActivity(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}

	types, err := svc.GetAvailableEventTypes(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("expected 2 types, got %d", len(types))
	}

	if f.fetchCalls() != 0 {
		t.Errorf("historical reads must not hit the network, got %d fetches", f.fetchCalls())
	}
}

func TestHistoricalOperations_NoStore(t *testing.T) {
	svc := NewService(testLogger(), &fakeFetcher{}, nil, nil, nil)

	if _, err := svc.GetHistoricalActivity(context.Background(), "alice"); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
	if _, err := svc.GetAvailableEventTypes(context.Background(), "alice"); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
}

func TestValidateUser_Passthrough(t *testing.T) {
	svc := NewService(testLogger(), &fakeFetcher{exists: true}, nil, nil, nil)
	if !svc.ValidateUser(context.Background(), "alice") {
		t.Error("expected validation to pass through")
	}
}

func TestInvalidateCache(t *testing.T) {
	c := newFakeCache()
	c.entries["alice"] = someEvents("PushEvent")
	svc := NewService(testLogger(), &fakeFetcher{}, c, nil, nil)

	if !svc.InvalidateCache(context.Background(), "alice") {
		t.Error("expected invalidation of an existing entry to report true")
	}
	if svc.InvalidateCache(context.Background(), "alice") {
		t.Error("expected second invalidation to report false")
	}
}
