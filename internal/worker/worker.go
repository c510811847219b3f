package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"resize-orchestrator/internal/broker"
	"resize-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// Worker forwards job lifecycle transitions to a publisher. Observe is meant
// to be registered as a store listener; it never blocks; events that do not
// fit in the buffer are dropped.
type Worker struct {
	publisher broker.Publisher
	events    chan broker.Event
	logger    *zlog.Zerolog
	now       func() time.Time

	mu   sync.Mutex
	last string

	wg sync.WaitGroup
}

func NewWorker(publisher broker.Publisher, buffer int, logger *zlog.Zerolog) *Worker {
	return &Worker{
		publisher: publisher,
		events:    make(chan broker.Event, buffer),
		logger:    logger,
		now:       time.Now,
	}
}

func (w *Worker) Observe(st domain.JobState) {
	if st.JobID == "" {
		return
	}

	sig := signature(st)
	w.mu.Lock()
	if sig == w.last {
		w.mu.Unlock()
		return
	}
	w.last = sig
	w.mu.Unlock()

	event := broker.Event{
		ID:         uuid.NewString(),
		JobID:      st.JobID,
		Generation: st.Generation,
		Status:     st.Status,
		Progress:   st.Progress,
		Artifact:   st.ArtifactLocation,
		Processed:  st.Processed,
		Error:      st.Error,
		At:         w.now(),
	}

	select {
	case w.events <- event:
	default:
		w.logger.Warn().
			Str("job_id", st.JobID).
			Str("status", string(st.Status)).
			Msg("Event buffer full, dropping job event")
	}
}

// Start publishes events in the background until ctx is cancelled. Events
// still buffered at that point are flushed before the worker stops.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *Worker) run(ctx context.Context) {
	w.logger.Info().Int("buffer", cap(w.events)).Msg("Event worker started")
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			w.logger.Info().Msg("Event worker stopped")
			return
		case event := <-w.events:
			w.publish(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.events:
			w.publish(ctx, event)
		default:
			return
		}
	}
}

// Wait blocks until the goroutine launched by Start has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) publish(ctx context.Context, event broker.Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Str("job_id", event.JobID).
				Msg("Panic recovered while publishing event")
		}
	}()

	value, err := json.Marshal(event)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", event.JobID).Msg("Failed to marshal event")
		return
	}

	start := time.Now()
	if err := w.publisher.Publish(ctx, []byte(event.JobID), value); err != nil {
		w.logger.Error().
			Err(err).
			Str("job_id", event.JobID).
			Str("status", string(event.Status)).
			Msg("Failed to publish job event")
		return
	}

	w.logger.Debug().
		Str("job_id", event.JobID).
		Str("status", string(event.Status)).
		Dur("duration", time.Since(start)).
		Msg("Job event published")
}

func signature(st domain.JobState) string {
	kind := ""
	if st.Error != nil {
		kind = string(st.Error.Kind)
	}
	return fmt.Sprintf("%d|%s|%s|%t|%s", st.Generation, st.JobID, st.Status, st.Processed != nil, kind)
}
