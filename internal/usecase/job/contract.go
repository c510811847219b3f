package job

import (
	"context"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/api"
	"resize-orchestrator/internal/repository/job/memory"
	"resize-orchestrator/internal/usecase/poller"
)

type submitAPI interface {
	Submit(ctx context.Context, asset *domain.Asset, params domain.Parameters) (*api.SubmitResult, error)
}

type stateStore interface {
	Read() domain.JobState
	Advance(patches ...memory.Patch) uint64
	UpdateIf(generation uint64, patches ...memory.Patch) bool
}

type progressPoller interface {
	Supersede(generation uint64)
	Start(ctx context.Context, jobID string, generation uint64, artifactHint string) *poller.Task
}

type errorReporter interface {
	Report(generation uint64, err error, extra ...memory.Patch) bool
}
