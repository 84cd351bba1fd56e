package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moleboard/moleboard/internal/auth"
	"github.com/moleboard/moleboard/internal/blob"
	"github.com/moleboard/moleboard/internal/config"
	httpx "github.com/moleboard/moleboard/internal/http"
	"github.com/moleboard/moleboard/internal/ingest"
	"github.com/moleboard/moleboard/internal/notifications"
	"github.com/moleboard/moleboard/internal/observability"
	"github.com/moleboard/moleboard/internal/redisclient"
	"github.com/moleboard/moleboard/internal/repo/memory"
	"github.com/moleboard/moleboard/internal/session"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in, the exporter needs a collector to talk to
	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(context.Background(), "moleboard", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// the stores are in-memory by design: constructed once here and
	// injected everywhere, never package globals
	usersRepo := memory.NewUsersRepo()
	imagesRepo := memory.NewImagesRepo()

	if cfg.SeedDemoUsers {
		err := usersRepo.SeedDemoUsers(context.Background())

		if err != nil {
			log.Error("seeding demo users failed", "err", err)
			os.Exit(1)
		}
	}

	// session store: redis when configured, in-process map otherwise
	var sessionStore session.Store
	var ping func() error

	if cfg.SessionBackend == "redis" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		defer rc.Close()

		sessionStore = session.NewRedisStore(rc.Raw())

		ping = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return rc.Ping(ctx)
		}
	} else {
		sessionStore = session.NewMemoryStore()
	}

	tokens := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL())
	sessions := session.NewManager(usersRepo, sessionStore, tokens, cfg.SessionTTL())

	// blob store: local disk by default, s3/minio when configured
	var blobs blob.Store

	if cfg.BlobBackend == "s3" {
		s3, err := blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})

		if err != nil {
			log.Error("s3 blob store init failed", "err", err)
			os.Exit(1)
		}

		blobs = s3
	} else {
		local, err := blob.NewLocalStore(cfg.UploadDir)

		if err != nil {
			log.Error("local blob store init failed", "err", err)
			os.Exit(1)
		}

		blobs = local
	}

	pipeline := ingest.New(imagesRepo, blobs, log, prom)

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:    usersRepo,
		Images:   imagesRepo,
		Sessions: sessions,
		Pipeline: pipeline,
		Blobs:    blobs,
		Prom:     prom,
		Notifier: notifications.NewLogNotifier(),
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctxTimeOut := 10 * time.Second

		ctx, cancel := config.WithTimeout(ctxTimeOut)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
