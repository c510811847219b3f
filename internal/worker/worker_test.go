package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"resize-orchestrator/internal/broker"
	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/memory"

	"github.com/rs/zerolog"
)

type chanPublisher struct {
	out chan []byte
}

func (p *chanPublisher) Publish(_ context.Context, _, value []byte) error {
	p.out <- value
	return nil
}

func (p *chanPublisher) Close() error { return nil }

func receive(t *testing.T, out <-chan []byte) broker.Event {
	t.Helper()
	select {
	case raw := <-out:
		var e broker.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return broker.Event{}
}

func TestWorkerForwardsStatusTransitions(t *testing.T) {
	logger := zerolog.Nop()
	pub := &chanPublisher{out: make(chan []byte, 8)}
	w := NewWorker(pub, 8, &logger)

	store := memory.NewStore()
	store.Subscribe(w.Observe)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() {
		cancel()
		w.Wait()
	}()

	gen := store.Advance(memory.SetStatus(domain.StatusSubmitting))
	store.UpdateIf(gen, memory.SetJobID("job-1"), memory.SetStatus(domain.StatusPolling))
	store.UpdateIf(gen, memory.SetProgress(40))
	store.UpdateIf(gen, memory.SetProgress(70))
	store.UpdateIf(gen, memory.SetProgress(100), memory.SetArtifact("U"), memory.SetStatus(domain.StatusCompleted))

	first := receive(t, pub.out)
	if first.JobID != "job-1" || first.Status != domain.StatusPolling {
		t.Fatalf("unexpected first event %+v", first)
	}
	second := receive(t, pub.out)
	if second.Status != domain.StatusCompleted || second.Artifact != "U" || second.Progress != 100 {
		t.Fatalf("unexpected completion event %+v", second)
	}
	if second.ID == "" || second.ID == first.ID {
		t.Fatal("expected distinct event ids")
	}

	select {
	case raw := <-pub.out:
		t.Fatalf("progress-only updates must not publish, got %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestObserveDropsWhenBufferFull(t *testing.T) {
	logger := zerolog.Nop()
	w := NewWorker(&chanPublisher{out: make(chan []byte, 1)}, 1, &logger)

	w.Observe(domain.JobState{Generation: 1, JobID: "a", Status: domain.StatusPolling})
	w.Observe(domain.JobState{Generation: 1, JobID: "a", Status: domain.StatusCompleted})

	if len(w.events) != 1 {
		t.Fatalf("expected buffer to hold one event, got %d", len(w.events))
	}
}

func TestWorkerFlushesBufferedEventsOnStop(t *testing.T) {
	logger := zerolog.Nop()
	pub := &chanPublisher{out: make(chan []byte, 4)}
	w := NewWorker(pub, 4, &logger)

	w.Observe(domain.JobState{Generation: 2, JobID: "b", Status: domain.StatusPolling})
	w.Observe(domain.JobState{Generation: 2, JobID: "b", Status: domain.StatusFailed})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)
	w.Wait()

	if len(pub.out) != 2 {
		t.Fatalf("expected buffered events to be flushed, got %d", len(pub.out))
	}
}
