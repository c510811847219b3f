package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	kafka_impl "resize-orchestrator/internal/broker/kafka"
	"resize-orchestrator/internal/config"
	"resize-orchestrator/internal/domain"
	job_h "resize-orchestrator/internal/http-server/handler/job"
	"resize-orchestrator/internal/http-server/router"
	minio_repo "resize-orchestrator/internal/repository/artifact/cloud/minio"
	web_repo "resize-orchestrator/internal/repository/artifact/web"
	"resize-orchestrator/internal/repository/job/api"
	"resize-orchestrator/internal/repository/job/memory"
	asset_uc "resize-orchestrator/internal/usecase/asset"
	job_uc "resize-orchestrator/internal/usecase/job"
	"resize-orchestrator/internal/usecase/materializer"
	"resize-orchestrator/internal/usecase/poller"
	"resize-orchestrator/internal/usecase/reporter"
	"resize-orchestrator/internal/worker"

	"github.com/wb-go/wbf/zlog"
)

var ErrNoActiveJob = errors.New("no job is being polled")

type App struct {
	cfg       *config.Config
	server    *http.Server
	logger    *zlog.Zerolog
	store     *memory.Store
	poller    *poller.Poller
	assets    *asset_uc.AssetUsecase
	submitter *job_uc.Submitter
	worker    *worker.Worker
	producer  *kafka_impl.ProducerClient
	stopSub   func()
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	httpClient, err := api.NewHTTPClient(cfg.API.Key, cfg.API.RequestTimeout)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.API.BaseURL, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	store := memory.NewStore()
	rep := reporter.NewReporter(store, logger)

	webFetcher := web_repo.NewFetcher(httpClient, logger)
	var mat *materializer.Materializer
	if cfg.Storage.Enabled {
		objects, err := minio_repo.NewMinIORepository(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create object repository: %w", err)
		}
		mat = materializer.NewMaterializer(webFetcher, objects, store, rep, retries, logger)
	} else {
		mat = materializer.NewMaterializer(webFetcher, nil, store, rep, retries, logger)
	}

	progress := poller.NewPoller(client, store, rep, mat.OnComplete, poller.Options{
		Interval:           cfg.Poll.Interval,
		MaxFailures:        cfg.Poll.MaxFailures,
		MaxIncompleteTicks: cfg.Poll.MaxIncompleteTicks,
	}, logger)

	submitter := job_uc.NewSubmitter(client, store, progress, rep, logger)
	assets := asset_uc.NewAssetUsecase(store, progress, rep, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		poller:    progress,
		assets:    assets,
		submitter: submitter,
	}

	if cfg.Kafka.Enabled {
		a.producer = kafka_impl.NewProducerClient(cfg)
		a.worker = worker.NewWorker(a.producer, cfg.Events.Buffer, logger)
		a.stopSub = store.Subscribe(a.worker.Observe)
	}

	jobHandler := job_h.NewJobHandler(assets, submitter, store, logger)
	mux := router.SetupRouter(&router.Handler{JobHandler: jobHandler}, logger)

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// Run serves the control surface until SIGINT or SIGTERM.
func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(ctx, cancel)
	a.startWorker(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		cancel()
		a.shutdown()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.shutdown()
		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// Process selects the file at path, applies overrides to its default
// parameters, submits it and waits until the job settles. A signal cancels
// the wait and stops polling.
func (a *App) Process(path string, overrides func(*domain.Parameters)) (domain.JobState, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		a.shutdown()
	}()

	go a.handleSignals(ctx, cancel)
	a.startWorker(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.JobState{}, fmt.Errorf("failed to read image: %w", err)
	}

	asset, err := a.assets.Select(data, filepath.Base(path))
	if err != nil {
		return a.store.Read(), err
	}

	params := asset.DefaultParameters()
	if overrides != nil {
		overrides(&params)
	}
	if err := a.assets.SetParameters(params); err != nil {
		return a.store.Read(), err
	}

	if _, err := a.submitter.SubmitCurrent(ctx); err != nil {
		return a.store.Read(), err
	}

	task := a.poller.Active()
	if task == nil {
		return a.store.Read(), ErrNoActiveJob
	}

	select {
	case <-task.Done():
	case <-ctx.Done():
		a.logger.Info().Str("job_id", task.JobID()).Msg("Wait interrupted")
	}
	return a.store.Read(), nil
}

func (a *App) startWorker(ctx context.Context) {
	if a.worker != nil {
		a.worker.Start(ctx)
	}
}

func (a *App) shutdown() {
	a.poller.Stop()

	if a.stopSub != nil {
		a.stopSub()
	}
	if a.worker != nil {
		a.worker.Wait()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close producer")
		}
	}
}

func (a *App) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
		cancel()
	case <-ctx.Done():
	}
}
