package job

import (
	"context"
	"fmt"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/memory"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

type Submitter struct {
	api      submitAPI
	store    stateStore
	poller   progressPoller
	reporter errorReporter
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewSubmitter(api submitAPI, store stateStore, poller progressPoller, reporter errorReporter, logger *zlog.Zerolog) *Submitter {
	return &Submitter{
		api:      api,
		store:    store,
		poller:   poller,
		reporter: reporter,
		validate: validator.New(),
		logger:   logger,
	}
}

// SubmitCurrent submits the asset and parameters held in the store.
func (s *Submitter) SubmitCurrent(ctx context.Context) (string, error) {
	st := s.store.Read()
	return s.Submit(ctx, st.Source, st.Parameters)
}

// Submit starts a new job. It supersedes whatever job was tracked before,
// clears the error slot and, once the service acknowledged the job, leaves
// exactly one poller running for it.
func (s *Submitter) Submit(ctx context.Context, asset *domain.Asset, params domain.Parameters) (string, error) {
	gen := s.store.Advance(memory.ClearJob(), memory.SetStatus(domain.StatusSubmitting))
	s.poller.Supersede(gen)

	if asset == nil || len(asset.Data) == 0 {
		err := fmt.Errorf("%w: %w", domain.ErrValidation, ErrNoAsset)
		s.reporter.Report(gen, err, memory.SetStatus(domain.StatusIdle))
		return "", err
	}
	if err := s.validate.Struct(params); err != nil {
		err = fmt.Errorf("%w: %w: %v", domain.ErrValidation, ErrInvalidParameters, err)
		s.reporter.Report(gen, err, memory.SetStatus(domain.StatusReady))
		return "", err
	}

	s.logger.Info().
		Str("filename", asset.Filename).
		Int64("size", asset.Meta.Size).
		Int("width", params.Width).
		Int("height", params.Height).
		Int("quality", params.Quality).
		Uint64("generation", gen).
		Msg("Submitting resize job")

	res, err := s.api.Submit(ctx, asset, params)
	if err != nil {
		err = fmt.Errorf("%w: failed to submit the image: %w", domain.ErrSubmission, err)
		s.reporter.Report(gen, err, memory.SetStatus(domain.StatusFailed))
		s.logger.Error().Err(err).Uint64("generation", gen).Msg("Submission failed")
		return "", err
	}

	if !s.store.UpdateIf(gen, memory.SetJobID(res.JobID), memory.SetStatus(domain.StatusPolling)) {
		s.logger.Warn().
			Str("job_id", res.JobID).
			Uint64("generation", gen).
			Msg("Submission acknowledged after being superseded")
		return "", ErrSuperseded
	}

	s.poller.Start(context.WithoutCancel(ctx), res.JobID, gen, res.Artifact)

	s.logger.Info().
		Str("job_id", res.JobID).
		Uint64("generation", gen).
		Msg("Resize job submitted")
	return res.JobID, nil
}
