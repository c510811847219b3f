package job

import (
	"context"

	"resize-orchestrator/internal/domain"
)

type assetUsecase interface {
	Select(data []byte, filename string) (*domain.Asset, error)
	SetParameters(params domain.Parameters) error
	SetDragging(dragging bool)
	Clear()
}

type jobSubmitter interface {
	SubmitCurrent(ctx context.Context) (string, error)
}

type stateReader interface {
	Read() domain.JobState
}
