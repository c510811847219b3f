package job_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/http-server/handler/job"
	"resize-orchestrator/internal/http-server/handler/job/dto"
	"resize-orchestrator/internal/http-server/router"
	"resize-orchestrator/internal/repository/job/memory"
	job_uc "resize-orchestrator/internal/usecase/job"

	"github.com/rs/zerolog"
)

type fakeAssets struct {
	store    *memory.Store
	selected []byte
	filename string
	params   *domain.Parameters
	dragging bool
	cleared  bool
}

func (f *fakeAssets) Select(data []byte, filename string) (*domain.Asset, error) {
	f.selected = data
	f.filename = filename
	asset := &domain.Asset{Filename: filename, Data: data, Meta: domain.AssetMetadata{Width: 4, Height: 2, Size: int64(len(data)), Format: "png"}}
	f.store.Advance(memory.SetSource(asset), memory.SetStatus(domain.StatusReady))
	return asset, nil
}

func (f *fakeAssets) SetParameters(params domain.Parameters) error {
	f.params = &params
	return nil
}

func (f *fakeAssets) SetDragging(dragging bool) { f.dragging = dragging }
func (f *fakeAssets) Clear()                    { f.cleared = true }

type fakeSubmitter struct {
	jobID string
	err   error
}

func (f *fakeSubmitter) SubmitCurrent(context.Context) (string, error) {
	return f.jobID, f.err
}

func newServer(t *testing.T, sub *fakeSubmitter) (http.Handler, *fakeAssets, *memory.Store) {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewStore()
	assets := &fakeAssets{store: store}
	h := job.NewJobHandler(assets, sub, store, &logger)
	return router.SetupRouter(&router.Handler{JobHandler: h}, &logger), assets, store
}

func TestSubmitStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"validation", fmt.Errorf("%w: %w", domain.ErrValidation, job_uc.ErrNoAsset), http.StatusBadRequest},
		{"submission", fmt.Errorf("%w: boom", domain.ErrSubmission), http.StatusBadGateway},
		{"superseded", job_uc.ErrSuperseded, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, _ := newServer(t, &fakeSubmitter{jobID: "job-1", err: tc.err})

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", nil))

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if tc.err == nil {
				var resp dto.SubmitResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.JobID != "job-1" {
					t.Fatalf("unexpected job id %q", resp.JobID)
				}
			}
		})
	}
}

func TestSelectAssetMultipart(t *testing.T) {
	srv, assets, _ := newServer(t, &fakeSubmitter{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(domain.FormFieldImage, "cat.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("pixels"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/asset", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if assets.filename != "cat.png" || string(assets.selected) != "pixels" {
		t.Fatalf("asset not forwarded: %q %q", assets.filename, assets.selected)
	}

	var resp dto.StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source == nil || resp.Source.Filename != "cat.png" || resp.Source.SizeHuman == "" {
		t.Fatalf("unexpected source view %+v", resp.Source)
	}
	if strings.Contains(rec.Body.String(), "pixels") {
		t.Fatal("state view must not carry asset bytes")
	}
}

func TestSelectAssetRequiresImage(t *testing.T) {
	srv, assets, _ := newServer(t, &fakeSubmitter{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/asset", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if assets.selected != nil {
		t.Fatal("select must not be called without an image")
	}
}

func TestSetParametersValidates(t *testing.T) {
	srv, assets, _ := newServer(t, &fakeSubmitter{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/parameters",
		strings.NewReader(`{"width":10,"height":10,"quality":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for quality 0, got %d", rec.Code)
	}
	if assets.params != nil {
		t.Fatal("invalid parameters must not be forwarded")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/parameters",
		strings.NewReader(`{"width":10,"height":20,"maintain_aspect_ratio":true,"quality":70,"max_size_kb":5}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := domain.Parameters{Width: 10, Height: 20, MaintainAspectRatio: true, Quality: 70, MaxSizeKB: 5}
	if assets.params == nil || *assets.params != want {
		t.Fatalf("unexpected parameters %+v", assets.params)
	}
}

func TestStateViewAndClear(t *testing.T) {
	srv, assets, store := newServer(t, &fakeSubmitter{})

	gen := store.Advance(memory.SetJobID("job-9"), memory.SetStatus(domain.StatusFailed))
	store.UpdateIf(gen, memory.SetError(domain.KindPoll, "lost contact"))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get("X-Request-ID"))
	}
	var resp dto.StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != string(domain.StatusFailed) || resp.JobID != "job-9" || resp.Error == nil || resp.Error.Kind != "poll" {
		t.Fatalf("unexpected state view %+v", resp)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/state", nil))
	if rec.Code != http.StatusNoContent || !assets.cleared {
		t.Fatalf("expected clear, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/ui", strings.NewReader(`{"dragging":true}`)))
	if rec.Code != http.StatusNoContent || !assets.dragging {
		t.Fatalf("expected dragging flag, got %d", rec.Code)
	}
}
