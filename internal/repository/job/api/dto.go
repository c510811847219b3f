package api

type submitResponse struct {
	JobID       string `json:"job_id" validate:"required"`
	DownloadURL string `json:"download_url"`
	ObjectName  string `json:"object_name"`
}

type progressResponse struct {
	Progress    *int   `json:"progress" validate:"required,min=0,max=100"`
	DownloadURL string `json:"download_url"`
	ObjectName  string `json:"object_name"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// SubmitResult is the acknowledged job. Artifact is empty unless the service
// already announced where the result will be.
type SubmitResult struct {
	JobID    string
	Artifact string
}

type ProgressResult struct {
	Progress int
	Artifact string
}
