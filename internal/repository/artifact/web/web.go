package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"resize-orchestrator/internal/repository/artifact"

	"github.com/wb-go/wbf/zlog"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads artifacts addressed by an absolute http(s) URL.
type Fetcher struct {
	client HTTPDoer
	logger *zlog.Zerolog
}

func NewFetcher(client HTTPDoer, logger *zlog.Zerolog) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", artifact.ErrInvalidReference, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, artifact.ErrArtifactNotFound
	case resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: artifact download returned %d", artifact.ErrStorageError, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, artifact.MaxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if len(data) > artifact.MaxArtifactSize {
		return nil, artifact.ErrArtifactTooLarge
	}

	f.logger.Debug().
		Str("location", location).
		Int("size", len(data)).
		Msg("Artifact downloaded")
	return data, nil
}
