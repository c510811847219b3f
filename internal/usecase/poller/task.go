package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/api"
	"resize-orchestrator/internal/repository/job/memory"
)

type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

var ErrMissingArtifact = errors.New("job reported complete without an artifact reference")

// Task polls one job. Ticks never overlap: the next one is scheduled only
// after the previous response has been settled.
type Task struct {
	p          *Poller
	ctx        context.Context
	jobID      string
	generation uint64
	hint       string

	mu         sync.Mutex
	state      State
	timer      Timer
	failures   int
	incomplete int
	ticks      int

	doneOnce sync.Once
	done     chan struct{}
}

func (t *Task) JobID() string      { return t.jobID }
func (t *Task) Generation() uint64 { return t.generation }

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Ticks returns how many progress requests have been issued.
func (t *Task) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Done is closed once the task reaches a terminal state and, for Completed,
// after the completion handler returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the task. It is idempotent and the task never writes to the
// store afterwards; a request already in flight is left to finish and its
// result is discarded.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	if t.state.terminal() {
		t.mu.Unlock()
		return false
	}
	t.finishLocked(StateCancelled)
	t.mu.Unlock()

	t.closeDone()
	t.p.logger.Info().
		Str("job_id", t.jobID).
		Uint64("generation", t.generation).
		Msg("Progress polling cancelled")
	return true
}

func (t *Task) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return
	}
	t.state = StatePolling
	t.scheduleLocked()

	t.p.logger.Info().
		Str("job_id", t.jobID).
		Uint64("generation", t.generation).
		Dur("interval", t.p.opts.Interval).
		Msg("Progress polling started")
}

func (t *Task) tick() {
	t.mu.Lock()
	if t.state != StatePolling {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.ticks++
	t.mu.Unlock()

	res, err := t.p.api.Progress(t.ctx, t.jobID)

	artifact, completed := t.settle(res, err)
	if completed && t.p.onComplete != nil {
		t.p.onComplete(t.ctx, t.generation, artifact)
	}
	if t.State().terminal() {
		t.closeDone()
	}
}

// settle applies one response. It reports the artifact reference when the
// job has just completed.
func (t *Task) settle(res *api.ProgressResult, err error) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePolling {
		return "", false
	}
	if !t.p.store.IsCurrent(t.generation) {
		t.discardLocked()
		return "", false
	}

	if err != nil {
		t.failLocked(err)
		return "", false
	}
	t.failures = 0

	artifact := res.Artifact
	if artifact == "" && res.Progress == domain.ProgressComplete {
		artifact = t.hint
	}

	if res.Progress == domain.ProgressComplete && artifact != "" {
		ok := t.p.store.UpdateIf(t.generation,
			memory.SetProgress(domain.ProgressComplete),
			memory.SetArtifact(artifact),
			memory.SetStatus(domain.StatusCompleted),
		)
		if !ok {
			t.discardLocked()
			return "", false
		}
		t.finishLocked(StateCompleted)
		t.p.logger.Info().
			Str("job_id", t.jobID).
			Uint64("generation", t.generation).
			Str("artifact", artifact).
			Int("ticks", t.ticks).
			Msg("Job completed")
		return artifact, true
	}

	if !t.p.store.UpdateIf(t.generation, memory.SetProgress(res.Progress)) {
		t.discardLocked()
		return "", false
	}

	if res.Progress == domain.ProgressComplete {
		t.incomplete++
		if t.incomplete >= t.p.opts.MaxIncompleteTicks {
			t.terminateLocked(fmt.Errorf("%w: %w after %d responses", domain.ErrPoll, ErrMissingArtifact, t.incomplete))
			return "", false
		}
		t.p.logger.Warn().
			Str("job_id", t.jobID).
			Int("incomplete", t.incomplete).
			Msg("Progress reached 100 without artifact, polling again")
	}

	t.p.logger.Debug().
		Str("job_id", t.jobID).
		Int("progress", res.Progress).
		Msg("Progress updated")

	t.scheduleLocked()
	return "", false
}

func (t *Task) failLocked(err error) {
	t.failures++
	if t.failures >= t.p.opts.MaxFailures {
		t.terminateLocked(fmt.Errorf("%w: progress request failed %d times in a row: %w", domain.ErrPoll, t.failures, err))
		return
	}

	t.p.logger.Warn().
		Err(err).
		Str("job_id", t.jobID).
		Int("failures", t.failures).
		Int("max_failures", t.p.opts.MaxFailures).
		Msg("Progress request failed, retrying on next tick")
	t.scheduleLocked()
}

// terminateLocked fails the task, or discards it when the failure can no
// longer be recorded because a newer job took over.
func (t *Task) terminateLocked(err error) {
	if !t.p.reporter.Report(t.generation, err, memory.SetStatus(domain.StatusFailed)) {
		t.discardLocked()
		return
	}
	t.finishLocked(StateFailed)
	t.p.logger.Error().
		Err(err).
		Str("job_id", t.jobID).
		Uint64("generation", t.generation).
		Msg("Progress polling failed")
}

func (t *Task) discardLocked() {
	t.finishLocked(StateCancelled)
	t.p.logger.Info().
		Str("job_id", t.jobID).
		Uint64("generation", t.generation).
		Msg("Discarded progress response for superseded job")
}

func (t *Task) scheduleLocked() {
	t.timer = t.p.opts.Clock.AfterFunc(t.p.opts.Interval, t.tick)
}

func (t *Task) finishLocked(state State) {
	t.state = state
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Task) closeDone() {
	t.doneOnce.Do(func() { close(t.done) })
}

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}
