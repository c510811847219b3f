package reporter

import (
	"fmt"
	"testing"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job/memory"

	"github.com/rs/zerolog"
)

func TestReportOverwritesSlot(t *testing.T) {
	store := memory.NewStore()
	logger := zerolog.Nop()
	r := NewReporter(store, &logger)
	gen := store.Advance()

	r.Report(gen, fmt.Errorf("%w: first", domain.ErrSubmission))
	r.Report(gen, fmt.Errorf("%w: second", domain.ErrPoll), memory.SetStatus(domain.StatusFailed))

	st := store.Read()
	if st.Error == nil || st.Error.Kind != domain.KindPoll {
		t.Fatalf("expected poll error in slot, got %+v", st.Error)
	}
	if st.Error.Message != "poll error: second" {
		t.Fatalf("unexpected message %q", st.Error.Message)
	}
	if st.Status != domain.StatusFailed {
		t.Fatalf("expected extra patch to apply, got %s", st.Status)
	}

	r.Clear(gen)
	if store.Read().Error != nil {
		t.Fatal("expected slot to be cleared")
	}
}

func TestReportIgnoresStaleGeneration(t *testing.T) {
	store := memory.NewStore()
	logger := zerolog.Nop()
	r := NewReporter(store, &logger)
	stale := store.Advance()
	store.Advance()

	if r.Report(stale, fmt.Errorf("%w: late", domain.ErrMaterialize)) {
		t.Fatal("expected stale report to be dropped")
	}
	if store.Read().Error != nil {
		t.Fatal("stale report reached the slot")
	}
}
