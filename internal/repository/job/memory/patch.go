package memory

import "resize-orchestrator/internal/domain"

func SetStatus(status domain.JobStatus) Patch {
	return func(st *domain.JobState) { st.Status = status }
}

func SetJobID(id string) Patch {
	return func(st *domain.JobState) { st.JobID = id }
}

func SetProgress(progress int) Patch {
	return func(st *domain.JobState) { st.Progress = progress }
}

func SetArtifact(location string) Patch {
	return func(st *domain.JobState) { st.ArtifactLocation = location }
}

func SetProcessed(meta domain.AssetMetadata) Patch {
	return func(st *domain.JobState) { st.Processed = &meta }
}

func SetSource(asset *domain.Asset) Patch {
	return func(st *domain.JobState) { st.Source = asset }
}

func SetParameters(params domain.Parameters) Patch {
	return func(st *domain.JobState) { st.Parameters = params }
}

func SetDragging(dragging bool) Patch {
	return func(st *domain.JobState) { st.Dragging = dragging }
}

func SetError(kind domain.ErrorKind, message string) Patch {
	return func(st *domain.JobState) {
		st.Error = &domain.JobError{Kind: kind, Message: message}
	}
}

func ClearError() Patch {
	return func(st *domain.JobState) { st.Error = nil }
}

// ClearJob drops everything that belonged to the previous job while keeping
// the selected asset and parameters.
func ClearJob() Patch {
	return func(st *domain.JobState) {
		st.JobID = ""
		st.Progress = 0
		st.ArtifactLocation = ""
		st.Processed = nil
		st.Error = nil
	}
}

// Empty resets every field except the generation token.
func Empty() Patch {
	return func(st *domain.JobState) {
		*st = domain.JobState{Generation: st.Generation, Status: domain.StatusIdle}
	}
}
