// Command server runs scene's HTTP surface and worker dispatcher
// side-by-side in a single process.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/sceneapp/scene/internal/config"
	"github.com/sceneapp/scene/internal/dispatcher"
	"github.com/sceneapp/scene/internal/encoder"
	"github.com/sceneapp/scene/internal/handlers"
	"github.com/sceneapp/scene/internal/httpapi"
	"github.com/sceneapp/scene/internal/logging"
	"github.com/sceneapp/scene/internal/postgres"
	"github.com/sceneapp/scene/internal/queue"
	"github.com/sceneapp/scene/internal/store"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	dbPool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to postgres")
	}
	defer dbPool.Close()

	artifacts, err := store.New(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("create artifact store")
	}

	enc, err := encoder.Get(encoder.Config{
		ONNXLibPath:   cfg.ONNXLibPath,
		ModelPath:     cfg.CLIPModel,
		TokenizerPath: cfg.TokenizerPath,
		CPUOnly:       cfg.CPUOnly,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize vector encoder")
	}
	defer enc.Close()

	deps := &handlers.Deps{
		DB:        dbPool,
		Artifacts: artifacts,
		Encoder:   enc,
	}

	q := queue.New(dbPool)
	d := dispatcher.New(q, handlers.Dispatch(deps), cfg.MaxConcurrentJobs, cfg.PollInterval)

	logStartupBacklog(ctx, dbPool)

	dispatcherDone := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(dispatcherDone)
	}()

	httpDeps := &httpapi.Deps{
		DB:                      dbPool,
		Artifacts:               artifacts,
		Encoder:                 enc,
		SimilarityThreshold:     cfg.SimilarityThreshold,
		TextSimilarityThreshold: cfg.TextSimilarityThreshold,
	}
	router := httpapi.NewRouter(httpDeps, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	<-dispatcherDone
}

// logStartupBacklog reports how many jobs are already PENDING at boot.
// It is purely informational: reclaiming stuck RUNNING rows is future
// work, so this never re-queues or mutates anything.
func logStartupBacklog(ctx context.Context, pool *pgxpool.Pool) {
	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM serviceq WHERE status = 'PENDING'`).Scan(&count); err != nil {
		log.Warn().Err(err).Msg("startup: failed to count pending jobs")
		return
	}
	log.Info().Int("pending_jobs", count).Msg("startup: found pending jobs")
}
