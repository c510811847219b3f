package dto

type AssetResponse struct {
	Filename  string `json:"filename,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	Format    string `json:"format"`
}

type ParametersResponse struct {
	Width               int  `json:"width"`
	Height              int  `json:"height"`
	MaintainAspectRatio bool `json:"maintain_aspect_ratio"`
	Quality             int  `json:"quality"`
	MaxSizeKB           int  `json:"max_size_kb"`
}

type JobErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StateResponse mirrors the job state without the source bytes.
type StateResponse struct {
	Generation uint64             `json:"generation"`
	Status     string             `json:"status"`
	Source     *AssetResponse     `json:"source,omitempty"`
	Parameters ParametersResponse `json:"parameters"`
	JobID      string             `json:"job_id,omitempty"`
	Progress   int                `json:"progress"`
	Artifact   string             `json:"artifact,omitempty"`
	Processed  *AssetResponse     `json:"processed,omitempty"`
	Error      *JobErrorResponse  `json:"error,omitempty"`
	Dragging   bool               `json:"dragging"`
}

type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
