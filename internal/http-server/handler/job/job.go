package job

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/http-server/handler/job/dto"
	job_uc "resize-orchestrator/internal/usecase/job"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory     = 32 << 20
	maxUploadSize = 64 << 20
)

type JobHandler struct {
	assets    assetUsecase
	submitter jobSubmitter
	state     stateReader
	validate  *validator.Validate
	logger    *zlog.Zerolog
}

func NewJobHandler(assets assetUsecase, submitter jobSubmitter, state stateReader, logger *zlog.Zerolog) *JobHandler {
	return &JobHandler{
		assets:    assets,
		submitter: submitter,
		state:     state,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *JobHandler) SelectAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, header, err := r.FormFile(domain.FormFieldImage)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Image not found in request")
		h.respondError(w, http.StatusBadRequest, ErrImageRequired.Error(), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read image")
		h.respondError(w, http.StatusInternalServerError, "Failed to read image", err)
		return
	}

	if _, err := h.assets.Select(data, header.Filename); err != nil {
		h.logger.Warn().Err(err).Str("filename", header.Filename).Msg("Image rejected")
		h.respondError(w, http.StatusBadRequest, "Unsupported image", err)
		return
	}

	h.respondJSON(w, http.StatusOK, stateResponse(h.state.Read()))
}

func (h *JobHandler) SetParameters(w http.ResponseWriter, r *http.Request) {
	var req dto.ParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidPayload.Error(), err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid resize parameters", err)
		return
	}

	params := domain.Parameters{
		Width:               req.Width,
		Height:              req.Height,
		MaintainAspectRatio: req.MaintainAspectRatio,
		Quality:             req.Quality,
		MaxSizeKB:           req.MaxSizeKB,
	}
	if err := h.assets.SetParameters(params); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid resize parameters", err)
		return
	}

	h.respondJSON(w, http.StatusOK, stateResponse(h.state.Read()))
}

func (h *JobHandler) SetUI(w http.ResponseWriter, r *http.Request) {
	var req dto.UIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrInvalidPayload.Error(), err)
		return
	}

	h.assets.SetDragging(req.Dragging)
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.submitter.SubmitCurrent(r.Context())
	if err != nil {
		h.handleSubmitError(w, err)
		return
	}

	st := h.state.Read()
	h.logger.Info().Str("job_id", jobID).Uint64("generation", st.Generation).Msg("Job accepted")

	h.respondJSON(w, http.StatusAccepted, dto.SubmitResponse{
		JobID:  jobID,
		Status: string(st.Status),
	})
}

func (h *JobHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, stateResponse(h.state.Read()))
}

func (h *JobHandler) ClearState(w http.ResponseWriter, r *http.Request) {
	h.assets.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *JobHandler) handleSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.logger.Warn().Err(err).Msg("Submission rejected")
		h.respondError(w, http.StatusBadRequest, "Invalid submission", err)
	case errors.Is(err, job_uc.ErrSuperseded):
		h.logger.Info().Msg("Submission superseded")
		h.respondError(w, http.StatusConflict, "Submission superseded", nil)
	case errors.Is(err, domain.ErrSubmission):
		h.logger.Error().Err(err).Msg("Submission failed")
		h.respondError(w, http.StatusBadGateway, "Failed to submit the image", err)
	default:
		h.logger.Error().Err(err).Msg("Unexpected submission error")
		h.respondError(w, http.StatusInternalServerError, "Failed to submit the image", err)
	}
}

func stateResponse(st domain.JobState) dto.StateResponse {
	resp := dto.StateResponse{
		Generation: st.Generation,
		Status:     string(st.Status),
		Parameters: dto.ParametersResponse{
			Width:               st.Parameters.Width,
			Height:              st.Parameters.Height,
			MaintainAspectRatio: st.Parameters.MaintainAspectRatio,
			Quality:             st.Parameters.Quality,
			MaxSizeKB:           st.Parameters.MaxSizeKB,
		},
		JobID:    st.JobID,
		Progress: st.Progress,
		Artifact: st.ArtifactLocation,
		Dragging: st.Dragging,
	}

	if st.Source != nil {
		src := assetResponse(st.Source.Meta)
		src.Filename = st.Source.Filename
		resp.Source = src
	}
	if st.Processed != nil {
		resp.Processed = assetResponse(*st.Processed)
	}
	if st.Error != nil {
		resp.Error = &dto.JobErrorResponse{
			Kind:    string(st.Error.Kind),
			Message: st.Error.Message,
		}
	}
	return resp
}

func assetResponse(meta domain.AssetMetadata) *dto.AssetResponse {
	return &dto.AssetResponse{
		Width:     meta.Width,
		Height:    meta.Height,
		Size:      meta.Size,
		SizeHuman: humanize.Bytes(uint64(meta.Size)),
		Format:    meta.Format,
	}
}

func (h *JobHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *JobHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
