package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"activity-archive/internal/models"
)

// RecordWriter is the slice of the store the persister needs.
type RecordWriter interface {
	SaveAll(ctx context.Context, records []models.ActivityRecord) error
}

type persistJob struct {
	username  string
	events    []models.Event
	fetchedAt time.Time
}

// Persister writes fetched events to the store from a bounded worker pool.
// Jobs are fire-and-forget: the response path never waits on them, a full
// queue drops the job, and a failed batch is logged and forgotten.
type Persister struct {
	log     *slog.Logger
	store   RecordWriter
	queue   chan persistJob
	timeout time.Duration
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewPersister(log *slog.Logger, store RecordWriter) *Persister {
	return &Persister{
		log:     log,
		store:   store,
		queue:   make(chan persistJob, 256),
		timeout: 15 * time.Second,
	}
}

func (p *Persister) Start(workerCount int) {
	if workerCount < 1 {
		workerCount = 2
	}
	if workerCount > 16 {
		workerCount = 16
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i + 1)
	}
	p.log.Info("persister_started", "workers", workerCount)
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (p *Persister) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	p.log.Info("persister_stopped")
}

// Enqueue hands a fetch result to the worker pool without blocking. When the
// queue is full the job is dropped; the store is best-effort, not a write
// guarantee.
func (p *Persister) Enqueue(username string, events []models.Event, fetchedAt time.Time) {
	if len(events) == 0 {
		return
	}
	select {
	case p.queue <- persistJob{username: username, events: events, fetchedAt: fetchedAt}:
	default:
		p.log.Warn("persist_queue_full", "username", username, "events", len(events))
	}
}

func (p *Persister) worker(id int) {
	defer p.wg.Done()
	for job := range p.queue {
		p.persist(job)
	}
	p.log.Debug("persist_worker_stopped", "worker_id", id)
}

func (p *Persister) persist(job persistJob) {
	records := make([]models.ActivityRecord, 0, len(job.events))
	for _, e := range job.events {
		records = append(records, p.buildRecord(job, e))
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.store.SaveAll(ctx, records); err != nil {
		p.log.Error("persist_failed", "username", job.username, "events", len(records), "error", err)
		return
	}
	p.log.Info("persist_complete", "username", job.username, "events", len(records))
}

func (p *Persister) buildRecord(job persistJob, e models.Event) models.ActivityRecord {
	return models.ActivityRecord{
		EventID:        e.ID,
		Username:       job.username,
		EventType:      e.Type,
		RepositoryName: e.Repo.Name,
		Description:    p.describe(e),
		EventTime:      e.CreatedAt,
		FetchedAt:      job.fetchedAt,
		RawPayload:     encodePayload(p.log, e),
	}
}

// describe renders the event for storage. A formatting failure affects only
// that one record, never the batch.
func (p *Persister) describe(e models.Event) (desc string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("format_failed", "event_id", e.ID, "panic", r)
			desc = FallbackDescription(e)
		}
	}()
	return Render(e)
}

func encodePayload(log *slog.Logger, e models.Event) string {
	if e.Payload == nil {
		return "{}"
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		log.Error("payload_encode_failed", "event_id", e.ID, "error", err)
		return "{}"
	}
	return string(raw)
}
