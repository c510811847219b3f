package poller

import (
	"context"

	"resize-orchestrator/internal/repository/job/api"
	"resize-orchestrator/internal/repository/job/memory"
)

type progressAPI interface {
	Progress(ctx context.Context, jobID string) (*api.ProgressResult, error)
}

type stateStore interface {
	UpdateIf(generation uint64, patches ...memory.Patch) bool
	IsCurrent(generation uint64) bool
}

type errorReporter interface {
	Report(generation uint64, err error, extra ...memory.Patch) bool
}

// CompletionHandler runs once a job reaches Completed, on the goroutine that
// observed completion.
type CompletionHandler func(ctx context.Context, generation uint64, artifact string)
