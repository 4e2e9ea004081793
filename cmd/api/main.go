package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/api"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/api/ws"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/config"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/models"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/observability"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/queue"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/storage"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting piv API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Start event consumer to broadcast job completion events via WebSocket
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeEvents(ctx, "api-events", func(ctx context.Context, msg jetstream.Msg) error {
		var evt models.JobCompletionEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			return err
		}

		resp := dto.ResultResponse{JobID: evt.JobID}
		if evt.Status == models.JobStatusCompleted {
			if result, err := db.GetResultByJobID(ctx, evt.JobID); err != nil {
				slog.Error("load credential result", "error", err, "job_id", evt.JobID)
			} else if result != nil {
				resp = dto.ResultResponse{
					JobID:                 result.JobID,
					MIMEType:              result.MIMEType,
					Width:                 result.Width,
					Height:                result.Height,
					AppliedRotation:       result.AppliedRotation,
					PrimaryFaceConfidence: result.PrimaryFaceConfidence,
					ActualRate:            result.ActualRate,
					ActualSizeBytes:       result.ActualSizeBytes,
					ComplianceSeverity:    result.ComplianceSeverity,
					Warnings:              result.Warnings,
					CreatedAt:             result.CreatedAt.Format(time.RFC3339),
				}
			}
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type:   "job_completed",
			JobID:  evt.JobID,
			Status: string(evt.Status),
			Data:   resp,
		})

		return nil
	})
	if err != nil {
		slog.Warn("start event consumer", "error", err)
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		DB:       db,
		MinIO:    minioStore,
		Producer: producer,
		Hub:      hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
