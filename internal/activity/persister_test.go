package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"activity-archive/internal/models"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]models.ActivityRecord
	saved   chan struct{}
	err     error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{saved: make(chan struct{}, 16)}
}

func (w *fakeWriter) SaveAll(ctx context.Context, records []models.ActivityRecord) error {
	w.mu.Lock()
	w.batches = append(w.batches, records)
	err := w.err
	w.mu.Unlock()
	w.saved <- struct{}{}
	return err
}

func (w *fakeWriter) batch(i int) []models.ActivityRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batches[i]
}

func waitSaved(t *testing.T, w *fakeWriter) {
	t.Helper()
	select {
	case <-w.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SaveAll")
	}
}

func TestPersister_WritesBatchWithDescriptions(t *testing.T) {
	w := newFakeWriter()
	p := NewPersister(testLogger(), w)
	p.Start(1)
	defer p.Stop()

	events := []models.Event{
		{
			ID:        "e1",
			Type:      "PushEvent",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Actor:     models.Actor{Login: "alice"},
			Repo:      models.Repo{Name: "acme/widgets"},
			Payload:   map[string]any{"size": float64(2)},
		},
		{
			ID:        "e2",
			Type:      "WatchEvent",
			CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Actor:     models.Actor{Login: "alice"},
			Repo:      models.Repo{Name: "acme/widgets"},
		},
	}

	fetchedAt := time.Now().UTC()
	p.Enqueue("alice", events, fetchedAt)
	waitSaved(t, w)

	records := w.batch(0)
	if len(records) != 2 {
		t.Fatalf("expected 2 records in one batch, got %d", len(records))
	}

	r := records[0]
	if r.EventID != "e1" || r.Username != "alice" || r.EventType != "PushEvent" {
		t.Errorf("unexpected record identity: %+v", r)
	}
	if r.Description != "[2024-01-01T00:00:00] alice pushed 2 commit(s) to acme/widgets" {
		t.Errorf("unexpected description: %q", r.Description)
	}
	if !r.FetchedAt.Equal(fetchedAt) {
		t.Errorf("expected fetchedAt %v, got %v", fetchedAt, r.FetchedAt)
	}
	if r.RawPayload != `{"size":2}` {
		t.Errorf("unexpected raw payload: %q", r.RawPayload)
	}

	// nil payload defaults to an empty object
	if records[1].RawPayload != "{}" {
		t.Errorf("expected empty payload object, got %q", records[1].RawPayload)
	}
}

func TestPersister_SaveFailureIsSwallowed(t *testing.T) {
	w := newFakeWriter()
	w.err = context.DeadlineExceeded
	p := NewPersister(testLogger(), w)
	p.Start(1)

	p.Enqueue("alice", someEvents("PushEvent"), time.Now())
	waitSaved(t, w)

	// a failed batch must not wedge the worker
	p.Enqueue("alice", someEvents("WatchEvent"), time.Now())
	waitSaved(t, w)

	p.Stop()
}

func TestPersister_EnqueueNeverBlocks(t *testing.T) {
	w := newFakeWriter()
	p := NewPersister(testLogger(), w)
	// workers intentionally not started: the queue fills up

	events := someEvents("PushEvent")
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Enqueue("alice", events, time.Now())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestPersister_SkipsEmptyResult(t *testing.T) {
	w := newFakeWriter()
	p := NewPersister(testLogger(), w)
	p.Start(1)

	p.Enqueue("alice", nil, time.Now())
	p.Stop()

	select {
	case <-w.saved:
		t.Error("expected no SaveAll for an empty result")
	default:
	}
}
