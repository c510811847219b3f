package reporter

import (
	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/memory"

	"github.com/wb-go/wbf/zlog"
)

type stateStore interface {
	UpdateIf(generation uint64, patches ...memory.Patch) bool
}

// Reporter owns the single error slot. The most recent report wins.
type Reporter struct {
	store  stateStore
	logger *zlog.Zerolog
}

func NewReporter(store stateStore, logger *zlog.Zerolog) *Reporter {
	return &Reporter{store: store, logger: logger}
}

// Report writes err into the slot, together with extra patches, unless
// generation has been superseded.
func (r *Reporter) Report(generation uint64, err error, extra ...memory.Patch) bool {
	kind := domain.KindOf(err)
	patches := append([]memory.Patch{memory.SetError(kind, err.Error())}, extra...)
	if !r.store.UpdateIf(generation, patches...) {
		r.logger.Debug().
			Err(err).
			Uint64("generation", generation).
			Msg("Dropped error report for superseded job")
		return false
	}

	r.logger.Warn().
		Err(err).
		Str("kind", string(kind)).
		Uint64("generation", generation).
		Msg("Job error reported")
	return true
}

func (r *Reporter) Clear(generation uint64) bool {
	return r.store.UpdateIf(generation, memory.ClearError())
}
