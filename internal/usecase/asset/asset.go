package asset

import (
	"fmt"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/memory"
	"resize-orchestrator/internal/usecase/processor"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

type stateStore interface {
	Generation() uint64
	Advance(patches ...memory.Patch) uint64
	Update(patches ...memory.Patch)
}

type progressPoller interface {
	Supersede(generation uint64)
}

type errorReporter interface {
	Report(generation uint64, err error, extra ...memory.Patch) bool
}

// AssetUsecase covers the part of the lifecycle that happens before a
// submission: choosing the source image, editing parameters and clearing.
type AssetUsecase struct {
	store    stateStore
	poller   progressPoller
	reporter errorReporter
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewAssetUsecase(store stateStore, poller progressPoller, reporter errorReporter, logger *zlog.Zerolog) *AssetUsecase {
	return &AssetUsecase{
		store:    store,
		poller:   poller,
		reporter: reporter,
		validate: validator.New(),
		logger:   logger,
	}
}

// Select replaces the state with a fresh one built around data. Any job
// tracked so far is superseded.
func (u *AssetUsecase) Select(data []byte, filename string) (*domain.Asset, error) {
	meta, contentType, err := processor.Inspect(data)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrValidation, err)
		u.reporter.Report(u.store.Generation(), err)
		return nil, err
	}

	asset := &domain.Asset{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		Meta:        meta,
	}

	gen := u.store.Advance(
		memory.Empty(),
		memory.SetSource(asset),
		memory.SetParameters(asset.DefaultParameters()),
		memory.SetStatus(domain.StatusReady),
	)
	u.poller.Supersede(gen)

	u.logger.Info().
		Str("filename", filename).
		Str("content_type", contentType).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Int64("size", meta.Size).
		Msg("Asset selected")
	return asset, nil
}

func (u *AssetUsecase) SetParameters(params domain.Parameters) error {
	if err := u.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	u.store.Update(memory.SetParameters(params))
	return nil
}

func (u *AssetUsecase) SetDragging(dragging bool) {
	u.store.Update(memory.SetDragging(dragging))
}

// Clear drops the asset and the job, stopping any poller.
func (u *AssetUsecase) Clear() {
	gen := u.store.Advance(memory.Empty())
	u.poller.Supersede(gen)
	u.logger.Info().Uint64("generation", gen).Msg("State cleared")
}
