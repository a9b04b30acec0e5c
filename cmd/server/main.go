package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/leowmjw/go-temporal-eventstream/pkg/http"
	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

// config holds environment defaults; flags override when set.
type config struct {
	HTTPAddr     string `env:"EVENTSTREAM_HTTP_ADDR" envDefault:":8080"`
	TemporalAddr string `env:"EVENTSTREAM_TEMPORAL_ADDR" envDefault:"localhost:7233"`
	Namespace    string `env:"EVENTSTREAM_NAMESPACE" envDefault:"default"`
	TaskQueue    string `env:"EVENTSTREAM_TASK_QUEUE" envDefault:"eventstream-task-queue"`
	LogLevel     string `env:"EVENTSTREAM_LOG_LEVEL" envDefault:"info"`
	DBPath       string `env:"EVENTSTREAM_DB"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("Failed to parse environment", "error", err)
		os.Exit(1)
	}

	var (
		httpAddr     = flag.String("http-addr", cfg.HTTPAddr, "HTTP server address")
		temporalAddr = flag.String("temporal-addr", cfg.TemporalAddr, "Temporal server address")
		namespace    = flag.String("namespace", cfg.Namespace, "Temporal namespace")
		taskQueue    = flag.String("task-queue", cfg.TaskQueue, "Temporal task queue")
		logLevel     = flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
		dbPath       = flag.String("db", cfg.DBPath, "SQLite event store path (empty for in-memory store)")
	)
	flag.Parse()

	// Setup logger
	var logHandler slog.Handler
	switch *logLevel {
	case "debug":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case "warn":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	case "error":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	default:
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("Starting Event Stream Service..",
		"http_addr", *httpAddr,
		"temporal_addr", *temporalAddr,
		"namespace", *namespace,
		"task_queue", *taskQueue,
	)

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  *temporalAddr,
		Namespace: *namespace,
		// Note: Logger removed - Temporal's logger interface is different from slog
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Create the event store: SQLite when a path is given, in-memory otherwise
	var storage temporal.StorageService
	if *dbPath != "" {
		sqlStorage, err := temporal.NewSQLiteStorageService(*dbPath)
		if err != nil {
			logger.Error("Failed to open event store", "error", err, "path", *dbPath)
			os.Exit(1)
		}
		defer sqlStorage.Close()
		storage = sqlStorage
		logger.Info("Using SQLite event store", "path", *dbPath)
	} else {
		storage = temporal.NewMockStorageService()
		logger.Info("Using in-memory event store")
	}

	// Create activities
	activities := temporal.NewActivitiesImpl(logger, storage)

	// Create and start Temporal worker
	w := worker.New(temporalClient, *taskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(temporal.IngestionWorkflow)
	w.RegisterWorkflow(temporal.PipelineWorkflow)
	w.RegisterWorkflow(temporal.SegmentedBinningWorkflow)

	// Register activities under the names the workflows execute them by
	w.RegisterActivityWithOptions(activities.AppendEventsActivity,
		activity.RegisterOptions{Name: temporal.AppendEventsActivityName})
	w.RegisterActivityWithOptions(activities.LoadEventsActivity,
		activity.RegisterOptions{Name: temporal.LoadEventsActivityName})
	w.RegisterActivityWithOptions(activities.RunPipelineActivity,
		activity.RegisterOptions{Name: temporal.RunPipelineActivityName})
	w.RegisterActivityWithOptions(activities.BinSegmentActivity,
		activity.RegisterOptions{Name: temporal.BinSegmentActivityName})

	// Start worker in background
	go func() {
		logger.Info("Starting Temporal worker", "task_queue", *taskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	// Create and start HTTP server
	server := http.NewServer(logger, temporalClient, *httpAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start server in background
	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	// Cancel context to stop HTTP server
	cancel()

	logger.Info("Event Stream Service stopped")
}
