package poller

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"
)

const (
	DefaultInterval           = 2 * time.Second
	DefaultMaxFailures        = 3
	DefaultMaxIncompleteTicks = 3
)

type Options struct {
	Interval           time.Duration
	MaxFailures        int
	MaxIncompleteTicks int
	Clock              Clock
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = DefaultMaxFailures
	}
	if o.MaxIncompleteTicks <= 0 {
		o.MaxIncompleteTicks = DefaultMaxIncompleteTicks
	}
	if o.Clock == nil {
		o.Clock = RealClock()
	}
	return o
}

// Poller starts progress tasks and guarantees at most one of them is polling
// at any time.
type Poller struct {
	api        progressAPI
	store      stateStore
	reporter   errorReporter
	onComplete CompletionHandler
	opts       Options
	logger     *zlog.Zerolog

	mu      sync.Mutex
	current *Task
}

func NewPoller(api progressAPI, store stateStore, reporter errorReporter, onComplete CompletionHandler, opts Options, logger *zlog.Zerolog) *Poller {
	return &Poller{
		api:        api,
		store:      store,
		reporter:   reporter,
		onComplete: onComplete,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// Start binds a new task to jobID and generation, cancelling whichever task
// was active before. artifactHint is the reference announced at submission,
// if any. A task older than the active one, or bound to a generation the
// store has moved past, is returned already cancelled.
func (p *Poller) Start(ctx context.Context, jobID string, generation uint64, artifactHint string) *Task {
	t := &Task{
		p:          p,
		ctx:        ctx,
		jobID:      jobID,
		generation: generation,
		hint:       artifactHint,
		state:      StateIdle,
		done:       make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.current
	if (prev != nil && prev.generation > generation) || !p.store.IsCurrent(generation) {
		p.mu.Unlock()
		t.state = StateCancelled
		t.closeDone()
		p.logger.Info().
			Str("job_id", jobID).
			Uint64("generation", generation).
			Msg("Refused to poll superseded job")
		return t
	}
	p.current = t
	p.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	t.start()
	return t
}

// Supersede cancels the active task if it is bound to a generation older
// than generation. It is safe to call repeatedly.
func (p *Poller) Supersede(generation uint64) {
	p.mu.Lock()
	t := p.current
	if t != nil && t.generation < generation {
		p.current = nil
	} else {
		t = nil
	}
	p.mu.Unlock()

	if t != nil {
		t.Cancel()
	}
}

// Stop cancels the active task whatever its generation.
func (p *Poller) Stop() {
	p.mu.Lock()
	t := p.current
	p.current = nil
	p.mu.Unlock()

	if t != nil {
		t.Cancel()
	}
}

// Active returns the most recently started task, or nil.
func (p *Poller) Active() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
