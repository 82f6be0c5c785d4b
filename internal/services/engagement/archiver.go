package engagement

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/domain/models"
)

// Archiver drains batches of activity events into the document database in
// the background so analytics writes never sit on the hot path.
type Archiver struct {
	jobs       chan []models.ActivityEvent
	collection docdb.EngagementCollection
	logger     zerolog.Logger

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// NewArchiver creates an archiver with the given queue depth.
func NewArchiver(bufferSize int, collection docdb.EngagementCollection, logger zerolog.Logger) *Archiver {
	ctx, cancel := context.WithCancel(context.Background())
	return &Archiver{
		jobs:       make(chan []models.ActivityEvent, bufferSize),
		collection: collection,
		logger:     logger.With().Str("component", "engagement_archiver").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (a *Archiver) Start(workerCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return
	}
	a.started = true

	for i := 0; i < workerCount; i++ {
		a.wg.Add(1)
		go a.worker()
	}
}

func (a *Archiver) worker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case batch, ok := <-a.jobs:
			if !ok {
				return
			}
			if err := a.collection.AddBatch(a.ctx, batch); err != nil {
				a.logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("failed to archive engagement events")
			}
		}
	}
}

// Enqueue adds a batch without blocking. A full queue drops the batch; the
// event log is analytics-only so loss is acceptable.
func (a *Archiver) Enqueue(batch []models.ActivityEvent) {
	if len(batch) == 0 {
		return
	}
	select {
	case a.jobs <- batch:
	default:
		a.logger.Warn().Int("batch_size", len(batch)).Msg("archiver queue full, dropping batch")
	}
}

// QueueSize returns the number of pending batches.
func (a *Archiver) QueueSize() int {
	return len(a.jobs)
}

// Stop shuts the archiver down and waits for in-flight batches.
func (a *Archiver) Stop() {
	a.cancel()
	close(a.jobs)
	a.wg.Wait()
}
