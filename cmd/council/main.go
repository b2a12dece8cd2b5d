package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"council-lab/ai"
	"council-lab/auth"
	"council-lab/classify"
	"council-lab/domain"
	"council-lab/domain/event"
	"council-lab/domain/specialist"
	"council-lab/httpapi"
	"council-lab/internal"
	"council-lab/observability"
	"council-lab/projection"
	"council-lab/repositories"
	"council-lab/runtime"
	"council-lab/runtime/workers"
	"council-lab/services"
	"council-lab/sink"
	handlers "council-lab/specialist"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// timelineCapacity bounds the in-memory window kept per conversation.
const timelineCapacity = 100

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Council terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.AnthropicAPIKey != "" && config.Model == "" {
		return exitConfig, errors.New("MODEL is required when ANTHROPIC_API_KEY is set")
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Setup Supervision & Orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	supervisor := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	feedRegistry := runtime.NewFeedRegistry()

	conversationRepository := repositories.NewConversationRepository(db, logger, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)
	searchRepository := repositories.NewSearchRepository(blugeWriter, logger)

	stats := observability.NewPipelineStats()
	counter := event.NewCounter()
	telemetryHandlers := []event.Handler{
		event.NewWorkerRestartedAfterPanicHandler(logger, counter),
		event.NewMessagePostedHandler(logger, counter),
		event.NewChannelCapacityHandler(logger, config.LowCapacityThreshold),
		event.NewProcessStatsHandler(logger),
		event.NewRoundLatencyHandler(logger, config.LatencyThreshold),
		observability.NewStatsHandler(stats),
	}

	orchestrator := runtime.NewOrchestrator(
		logger, supervisor, feedRegistry, telemetryChan,
		config.BufferSize, config.SinkTimeout, config.MetricInterval, config.HeartbeatInterval,
		telemetryHandlers...,
	)

	// 4. Sinks: the search index and the in-memory timeline observe every
	// appended record. Registration must precede Start.
	timeline := projection.NewTimeline(timelineCapacity)
	indexSink := sink.NewIndexSink(searchRepository, logger)
	orchestrator.RegisterSinks(indexSink, timeline)

	// 5. Specialist pool & dispatcher
	registry := buildRegistry(config, logger)
	classifier, err := classify.NewClassifier()
	if err != nil {
		return exitRuntime, fmt.Errorf("classifier build failed: %w", err)
	}
	dispatcher := runtime.NewDispatcher(logger, classifier, registry, conversationRepository, config.SpecialistTimeout)

	// 6. Application services & HTTP surface
	tokens := auth.NewTokenManager(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)
	conversationService := services.NewConversationService(logger, conversationRepository, dispatcher, orchestrator, stats)
	searchService := services.NewSearchService(searchRepository)
	server := httpapi.NewServer(logger, authService, conversationService, searchService, stats, timeline, tokens)

	if config.DebugPort != 0 {
		url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
		logger.Info("Debug Badger inspector available", "url", url)
		internal.StartDebugServer(db, config.DebugPort, "/inspect", RecordMapper, func() map[string]any {
			snap := stats.Snapshot()
			conversations, messages := timeline.Size()
			return map[string]any{
				"RoundsStarted":    snap.RoundsStarted,
				"RoundsSucceeded":  snap.RoundsSucceeded,
				"RoundsPartial":    snap.RoundsPartial,
				"RoundsFailed":     snap.RoundsFailed,
				"MessagesAppended": snap.MessagesAppended,
				"WorkersRestarted": snap.WorkersRestarted,
				"TimelineWindows":  fmt.Sprintf("%d conversations / %d messages", conversations, messages),
			}
		})
	}

	// 7. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Error (HTTP & Orchestrator)
	errChan := make(chan error, 2)

	// 8. Start the Engine (Workers and Fanout)
	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 9. HTTP Server Setup
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.HTTPPort),
		Handler: server.Routes(),
	}

	// Use an error channel to capture ListenAndServe() issues asynchronously.
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 11. Final Cleanup (Graceful Shutdown)
	// We allow in-flight requests to finish and workers to drain their channels.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// buildRegistry picks the specialist pool: model-backed handlers when an
// API key is configured, deterministic builtins otherwise.
func buildRegistry(config internal.Config, logger *slog.Logger) *handlers.Registry {
	if config.AnthropicAPIKey == "" {
		return handlers.NewBuiltinRegistry()
	}

	registry := handlers.NewRegistry()
	for _, id := range []specialist.ID{specialist.Code, specialist.Design, specialist.Writing, specialist.Analysis} {
		registry.Register(ai.NewModelHandler(id, config.AnthropicAPIKey, anthropic.Model(config.Model), logger))
	}
	logger.Info("Model-backed specialists enabled", "model", config.Model)
	return registry
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// RecordMapper enriches the generic inspector rows with decoded values.
func RecordMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	switch row.Kind {
	case "MSG":
		var msg domain.Message
		if err := json.Unmarshal(val, &msg); err != nil {
			return row
		}
		who := string(msg.Role)
		if msg.Specialist != "" {
			who = msg.Specialist
		}
		row.Detail = fmt.Sprintf("[%s] %s", who, truncate(msg.Content, 80))
	case "CONV":
		var conv domain.Conversation
		if err := json.Unmarshal(val, &conv); err != nil {
			return row
		}
		row.Detail = fmt.Sprintf("%q owner %s (%d messages)", conv.Title, conv.OwnerID, conv.MessageCount)
	}
	return row
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
