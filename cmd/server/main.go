package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"

	"team-chat/internal"
	"team-chat/observability"
	"team-chat/projection"
	"team-chat/repositories"
	"team-chat/runtime"
	"team-chat/runtime/workers"
	"team-chat/services"
	"team-chat/sink"
	"team-chat/transport/ws"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper: call run() and hand
	// the exit code to the OS.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This keeps 'defer' statements (like
// database cleanup) running before the process exits and decouples
// initialization from the entry point for testability.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Databases (Badger + Bluge)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
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

	// 3. Repositories
	messageRepo := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	teamRepo := repositories.NewTeamRepository(db, logger)
	convRepo := repositories.NewConversationRepository(db, logger)
	userRepo := repositories.NewUserRepository(db, logger)
	searchRepo := repositories.NewSearchRepository(blugeWriter, logger)
	directory := repositories.NewDirectory(logger, teamRepo, convRepo, userRepo)

	// 4. Transport gateway, created before the core since the router
	// needs the transport port at construction time.
	gateway := ws.NewGateway(logger, config.Origins(), config.MaxContentLength, config.SearchLimit)

	// 5. Delivery core
	supervisor := workers.NewSupervisor(logger)
	orch, err := runtime.NewOrchestrator(logger, supervisor, messageRepo, directory, gateway, runtime.Options{
		BufferSize:        config.BufferSize,
		SinkTimeout:       config.SinkTimeout,
		CharReplacement:   charReplacement,
		SweepInterval:     config.SweepInterval,
		HandshakeDeadline: config.HandshakeTimeout,
	})
	if err != nil {
		return exitRuntime, fmt.Errorf("building delivery core: %w", err)
	}

	// 6. Sinks & telemetry
	monitor := observability.NewMonitor()
	timeline := projection.NewTimeline(200)
	orch.Add(
		sink.NewSearchSink(searchRepo, logger),
		sink.NewTimelineSink(timeline),
		sink.NewStatsSink(monitor),
	)
	supervisor.Add(workers.NewHeartbeatWorker(logger, monitor, config.MetricInterval))

	// 7. Services & HTTP surface
	chatService := services.NewChatService(logger, orch, messageRepo, teamRepo, convRepo, searchRepo, gateway)
	gateway.Bind(orch.Lifecycle(), chatService)

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug storage inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, messageMapper, func() map[string]any {
			snap := monitor.Snapshot()
			return map[string]any{
				"MessagesSent":      snap.MessagesSent,
				"MessagesDelivered": snap.MessagesDelivered,
				"MessagesReplayed":  snap.MessagesReplayed,
				"OnlineUsers":       snap.OnlineUsers,
			}
		})
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: config.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: corsMiddleware.Handler(gateway.Routes()),
	}

	// 8. Start everything
	go func() {
		if err := orch.Start(ctx); err != nil {
			logger.Error("Orchestrator stopped", "err", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "err", err)
			cancel()
		}
	}()

	// 9. Graceful shutdown on SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info("Signal received, shutting down", "signal", s.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	orch.Stop()

	return exitOK, nil
}

// messageMapper renders stored messages in the debug inspector.
func messageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	if !strings.HasPrefix(key, "msg:") {
		return row
	}

	var stored struct {
		Sender    string `json:"sender"`
		Group     string `json:"group"`
		Content   string `json:"content"`
		Type      string `json:"type"`
		At        int64  `json:"at"`
		Delivered bool   `json:"delivered"`
	}
	if err := json.Unmarshal(val, &stored); err != nil {
		return row
	}

	row.Type = stored.Type
	row.Group = stored.Group
	row.Sender = stored.Sender
	row.Timestamp = time.Unix(0, stored.At).UTC().Format("15:04:05")
	row.Detail = stored.Content
	if stored.Delivered {
		row.Detail += " [delivered]"
	}
	return row
}
