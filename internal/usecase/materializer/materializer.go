package materializer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/artifact"
	"resize-orchestrator/internal/repository/job/memory"
	"resize-orchestrator/internal/usecase/processor"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type artifactFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

type stateStore interface {
	UpdateIf(generation uint64, patches ...memory.Patch) bool
}

type errorReporter interface {
	Report(generation uint64, err error, extra ...memory.Patch) bool
}

// Materializer enriches a completed job with the dimensions and size of its
// artifact. Failures are advisory: the job stays complete.
type Materializer struct {
	web      artifactFetcher
	objects  artifactFetcher
	store    stateStore
	reporter errorReporter
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

// NewMaterializer builds a materializer. objects may be nil when no object
// storage is configured.
func NewMaterializer(web, objects artifactFetcher, store stateStore, reporter errorReporter, retries retry.Strategy, logger *zlog.Zerolog) *Materializer {
	return &Materializer{
		web:      web,
		objects:  objects,
		store:    store,
		reporter: reporter,
		retries:  retries,
		logger:   logger,
	}
}

func (m *Materializer) Materialize(ctx context.Context, generation uint64, location string) (domain.AssetMetadata, error) {
	meta, err := m.describe(ctx, location)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrMaterialize, err)
		m.reporter.Report(generation, err)
		return domain.AssetMetadata{}, err
	}

	if !m.store.UpdateIf(generation, memory.SetProcessed(meta)) {
		m.logger.Debug().
			Uint64("generation", generation).
			Msg("Dropped artifact metadata for superseded job")
		return meta, nil
	}

	m.logger.Info().
		Str("location", location).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Int64("size", meta.Size).
		Msg("Artifact materialized")
	return meta, nil
}

// OnComplete adapts Materialize to the poller completion hook.
func (m *Materializer) OnComplete(ctx context.Context, generation uint64, location string) {
	_, _ = m.Materialize(ctx, generation, location)
}

func (m *Materializer) describe(ctx context.Context, location string) (domain.AssetMetadata, error) {
	fetcher, err := m.fetcherFor(location)
	if err != nil {
		return domain.AssetMetadata{}, err
	}

	var (
		data      []byte
		permanent error
	)
	err = retry.Do(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var fetchErr error
		data, fetchErr = fetcher.Fetch(ctx, location)
		if isPermanent(fetchErr) {
			permanent = fetchErr
			return nil
		}
		return fetchErr
	}, m.retries)
	if permanent != nil {
		err = permanent
	}
	if err != nil {
		return domain.AssetMetadata{}, fmt.Errorf("failed to fetch artifact: %w", err)
	}

	meta, _, err := processor.Inspect(data)
	if err != nil {
		return domain.AssetMetadata{}, fmt.Errorf("failed to inspect artifact: %w", err)
	}
	return meta, nil
}

func (m *Materializer) fetcherFor(location string) (artifactFetcher, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", artifact.ErrInvalidReference, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if m.web != nil {
			return m.web, nil
		}
	case domain.ObjectScheme:
		if m.objects != nil {
			return m.objects, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", artifact.ErrUnsupportedBackend, location)
}

// isPermanent reports fetch errors that another attempt cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, artifact.ErrArtifactNotFound) ||
		errors.Is(err, artifact.ErrArtifactTooLarge) ||
		errors.Is(err, artifact.ErrInvalidReference)
}
