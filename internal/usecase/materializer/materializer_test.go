package materializer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/artifact"
	"resize-orchestrator/internal/repository/job/memory"
	"resize-orchestrator/internal/usecase/reporter"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
)

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func completedStore(location string) (*memory.Store, uint64) {
	store := memory.NewStore()
	gen := store.Advance(
		memory.SetJobID("job-1"),
		memory.SetProgress(domain.ProgressComplete),
		memory.SetArtifact(location),
		memory.SetStatus(domain.StatusCompleted),
	)
	return store, gen
}

func newMaterializer(store *memory.Store, web, objects artifactFetcher) *Materializer {
	logger := zerolog.Nop()
	return NewMaterializer(web, objects, store, reporter.NewReporter(store, &logger), retry.Strategy{Attempts: 1}, &logger)
}

func TestMaterializeStoresArtifactMetadata(t *testing.T) {
	data := pngBytes(t, 120, 80)
	store, gen := completedStore("https://cdn.example/U.png")
	m := newMaterializer(store, &stubFetcher{data: data}, nil)

	meta, err := m.Materialize(context.Background(), gen, "https://cdn.example/U.png")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if meta.Width != 120 || meta.Height != 80 || meta.Size != int64(len(data)) {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	st := store.Read()
	if st.Processed == nil || *st.Processed != meta {
		t.Fatalf("expected processed metadata in store, got %+v", st.Processed)
	}
	if st.Error != nil {
		t.Fatalf("unexpected error %+v", st.Error)
	}
}

func TestMaterializeFailureKeepsJobComplete(t *testing.T) {
	store, gen := completedStore("https://cdn.example/U.png")
	m := newMaterializer(store, &stubFetcher{err: errors.New("connection reset")}, nil)

	if _, err := m.Materialize(context.Background(), gen, "https://cdn.example/U.png"); !errors.Is(err, domain.ErrMaterialize) {
		t.Fatalf("expected ErrMaterialize, got %v", err)
	}

	st := store.Read()
	if st.Progress != 100 || st.ArtifactLocation != "https://cdn.example/U.png" || st.Status != domain.StatusCompleted {
		t.Fatalf("materialize failure disturbed the completed job: %+v", st)
	}
	if st.Processed != nil {
		t.Fatalf("expected no processed metadata, got %+v", st.Processed)
	}
	if st.Error == nil || st.Error.Kind != domain.KindMaterialize {
		t.Fatalf("expected advisory materialize error, got %+v", st.Error)
	}
}

func TestMaterializeRejectsUndecodableArtifact(t *testing.T) {
	store, gen := completedStore("https://cdn.example/U.png")
	m := newMaterializer(store, &stubFetcher{data: []byte("<html>expired</html>")}, nil)

	if _, err := m.Materialize(context.Background(), gen, "https://cdn.example/U.png"); !errors.Is(err, domain.ErrMaterialize) {
		t.Fatalf("expected ErrMaterialize, got %v", err)
	}
	if store.Read().Processed != nil {
		t.Fatal("expected no processed metadata")
	}
}

func TestMaterializeRoutesObjectReferences(t *testing.T) {
	ref := domain.ObjectRef("resize/1.png")
	store, gen := completedStore(ref)
	web := &stubFetcher{err: errors.New("should not be used")}
	objects := &stubFetcher{data: pngBytes(t, 4, 4)}
	m := newMaterializer(store, web, objects)

	if _, err := m.Materialize(context.Background(), gen, ref); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if web.calls != 0 || objects.calls != 1 {
		t.Fatalf("expected object fetcher to be used, web=%d objects=%d", web.calls, objects.calls)
	}

	noStorage := newMaterializer(store, web, nil)
	if _, err := noStorage.Materialize(context.Background(), gen, ref); !errors.Is(err, domain.ErrMaterialize) {
		t.Fatalf("expected ErrMaterialize without object storage, got %v", err)
	}
}

func TestMaterializeDropsResultForSupersededJob(t *testing.T) {
	store, gen := completedStore("https://cdn.example/U.png")
	m := newMaterializer(store, &stubFetcher{data: pngBytes(t, 2, 2)}, nil)
	store.Advance(memory.ClearJob(), memory.SetJobID("job-2"))

	if _, err := m.Materialize(context.Background(), gen, "https://cdn.example/U.png"); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if store.Read().Processed != nil {
		t.Fatal("superseded materialization wrote to the store")
	}
}

func TestMaterializeRetriesOnlyTransientFetchErrors(t *testing.T) {
	logger := zerolog.Nop()
	strategy := retry.Strategy{Attempts: 3}

	for _, tc := range []struct {
		name      string
		err       error
		calls     int
		permanent bool
	}{
		{"not found", artifact.ErrArtifactNotFound, 1, true},
		{"too large", artifact.ErrArtifactTooLarge, 1, true},
		{"transient", errors.New("connection reset"), 3, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store, gen := completedStore("https://cdn.example/U.png")
			web := &stubFetcher{err: tc.err}
			m := NewMaterializer(web, nil, store, reporter.NewReporter(store, &logger), strategy, &logger)

			_, err := m.Materialize(context.Background(), gen, "https://cdn.example/U.png")
			if !errors.Is(err, domain.ErrMaterialize) {
				t.Fatalf("expected ErrMaterialize, got %v", err)
			}
			if tc.permanent && !errors.Is(err, tc.err) {
				t.Fatalf("expected error wrapping %v, got %v", tc.err, err)
			}
			if web.calls != tc.calls {
				t.Fatalf("expected %d fetch attempts, got %d", tc.calls, web.calls)
			}
		})
	}
}
