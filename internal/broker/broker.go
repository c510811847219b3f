package broker

import (
	"context"
	"time"

	"resize-orchestrator/internal/domain"
)

// Event describes one lifecycle transition of a tracked job.
type Event struct {
	ID         string                `json:"id"`
	JobID      string                `json:"job_id"`
	Generation uint64                `json:"generation"`
	Status     domain.JobStatus      `json:"status"`
	Progress   int                   `json:"progress"`
	Artifact   string                `json:"artifact,omitempty"`
	Processed  *domain.AssetMetadata `json:"processed,omitempty"`
	Error      *domain.JobError      `json:"error,omitempty"`
	At         time.Time             `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}
