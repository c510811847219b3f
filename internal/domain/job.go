package domain

type JobStatus string

const (
	StatusIdle       JobStatus = "idle"
	StatusReady      JobStatus = "ready"
	StatusSubmitting JobStatus = "submitting"
	StatusPolling    JobStatus = "polling"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Parameters struct {
	Width               int  `json:"width" validate:"gte=0"`
	Height              int  `json:"height" validate:"gte=0"`
	MaintainAspectRatio bool `json:"maintain_aspect_ratio"`
	Quality             int  `json:"quality" validate:"min=1,max=100"`
	// MaxSizeKB is the optional size ceiling; zero means no ceiling.
	MaxSizeKB int `json:"max_size_kb" validate:"gte=0"`
}

// JobState is the single authoritative snapshot of one tracked job.
type JobState struct {
	Generation       uint64
	Status           JobStatus
	Source           *Asset
	Parameters       Parameters
	JobID            string
	Progress         int
	ArtifactLocation string
	Processed        *AssetMetadata
	Error            *JobError
	Dragging         bool
}

const (
	DefaultQuality      = 80
	ProgressComplete    = 100
	DefaultKeepAspect   = true
	KilobyteSize        = 1024
	FormFieldImage      = "image"
	FormFieldWidth      = "width"
	FormFieldHeight     = "height"
	FormFieldKeepAspect = "maintainAspectRatio"
	FormFieldQuality    = "quality"
	FormFieldMaxSize    = "maxSize"
)
