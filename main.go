// Command trivia-rooms starts the multi-room trivia session server.
//
// It supports two modes:
//  1. "server" (default) – runs the game server on TCP and the HTTP server exposing
//     the REST admin API, the WebSocket game endpoint, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/ports, preset and question directories, debug logging,
// version output, and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/trivia-rooms/api"
	"github.com/wricardo/trivia-rooms/game/config"
	"github.com/wricardo/trivia-rooms/game/questions"
	"github.com/wricardo/trivia-rooms/game/registry"
	"github.com/wricardo/trivia-rooms/game/service"
	"github.com/wricardo/trivia-rooms/server"
	"github.com/wricardo/trivia-rooms/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Trivia Rooms Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", getPortDefault(), "Game server TCP port (or TRIVIA_PORT env var)")
	httpPort     = flag.Int("http-port", 8080, "HTTP server port for REST API, WebSocket and MCP")
	host         = flag.String("host", "localhost", "Server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing rule presets")
	questionsDir = flag.String("questions-dir", getEnvDefault("QUESTIONS_DIR", "questions"), "Directory containing question banks")
	roomsDir     = flag.String("rooms-dir", getEnvDefault("ROOMS_DIR", "rooms"), "Directory where room definitions are persisted (empty disables persistence)")
	preset       = flag.String("preset", config.DefaultPreset, "Default rule preset for new rooms")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default preset directory.
// It first honors the CONFIG_DIR environment variable, then falls back to "configs".
func getConfigDirDefault() string {
	return getEnvDefault("CONFIG_DIR", "configs")
}

func getPortDefault() int {
	var p int
	if _, err := fmt.Sscanf(os.Getenv("TRIVIA_PORT"), "%d", &p); err == nil && p > 0 {
		return p
	}
	return 12345
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run the game server with REST API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # Game on :12345, HTTP on :8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 4000 -preset blitz\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp             # Run MCP stdio server\n", os.Args[0])
	}
}

// newLogger builds the process logger. It writes to stderr so stdio-mcp
// keeps stdout for the protocol.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  debug,
		TimeFormat: time.Kitchen,
	}))
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logger := newLogger(os.Stderr, *debug)
	slog.SetDefault(logger)

	if envErr == nil {
		logger.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logger.Warn("error loading .env file", "error", envErr)
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	logger.Info("starting", "app", AppName, "version", Version, "mode", mode)

	svcs, err := initializeServices(logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer svcs.rooms.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		err = runStdioMCPWithInternalServer(ctx, svcs, logger)
	case "server", "http":
		err = runServer(ctx, svcs, logger)
	default:
		err = fmt.Errorf("unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
	if err != nil {
		logger.Error("exiting", "error", err)
		svcs.rooms.Close()
		os.Exit(1)
	}
}

// services holds everything initializeServices wires together.
type services struct {
	configs   *config.Manager
	questions *questions.Manager
	rooms     *registry.Registry
	server    *server.Server
	game      service.GameService
	api       *api.Server
}

// initializeServices wires the preset and question managers, the room
// registry with its persistence, the session server and the admin API.
func initializeServices(logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if *preset != "" {
		if err := configManager.SetDefault(*preset); err != nil {
			if *preset != config.DefaultPreset {
				return nil, fmt.Errorf("failed to select preset %s: %w", *preset, err)
			}
			logger.Warn("default preset not found, using built-in rules", "preset", *preset, "error", err)
		}
	}

	questionManager, err := questions.NewManager(*questionsDir, logger.With("component", "questions"))
	if err != nil {
		return nil, fmt.Errorf("failed to create question manager: %w", err)
	}
	if qs, err := questionManager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	} else if len(qs) == 0 {
		logger.Warn("question banks are empty, sessions will end immediately", "dir", *questionsDir)
	} else {
		logger.Info("loaded questions", "count", len(qs), "dir", *questionsDir)
	}

	var opts []registry.Option
	if *roomsDir != "" {
		persistence, err := registry.NewFilePersistence(*roomsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create room persistence: %w", err)
		}
		opts = append(opts, registry.WithPersistence(persistence))
	}

	rooms := registry.New(configManager, questionManager, logger.With("component", "registry"), opts...)

	// Restore rooms created before the last restart
	if _, err := rooms.LoadPersisted(); err != nil {
		logger.Warn("failed to load persisted rooms", "error", err)
	}

	srv := server.New(rooms, logger.With("component", "server"))
	gameService := service.NewGameService(rooms, configManager, questionManager, srv)

	return &services{
		configs:   configManager,
		questions: questionManager,
		rooms:     rooms,
		server:    srv,
		game:      gameService,
		api:       api.NewServer(gameService, http.HandlerFunc(srv.HandleWebSocket), logger.With("component", "api")),
	}, nil
}

// presetRefreshRoutine periodically drops cached presets so edited files in
// the config directory apply to rooms created afterwards.
func presetRefreshRoutine(ctx context.Context, manager *config.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.RefreshCache()
		}
	}
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServer starts the TCP game listener and the HTTP server with REST API,
// WebSocket endpoint and an /mcp proxy endpoint. If ngrok is enabled (via
// flag or environment), it also provisions a public tunnel for HTTP.
func runServer(ctx context.Context, svcs *services, logger *slog.Logger) error {
	gameAddr := net.JoinHostPort(*host, fmt.Sprint(*port))
	httpAddr := net.JoinHostPort(*host, fmt.Sprint(*httpPort))

	ln, err := net.Listen("tcp", gameAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", gameAddr, err)
	}

	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", httpAddr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", svcs.api)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:        httpAddr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("game server listening", "addr", ln.Addr().String())
		if err := svcs.server.Serve(ctx, ln); err != nil {
			errCh <- fmt.Errorf("game server failed: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", httpAddr)
		logger.Info("endpoints",
			"rest", fmt.Sprintf("http://%s/api", httpAddr),
			"websocket", fmt.Sprintf("ws://%s/ws", httpAddr),
			"mcp", fmt.Sprintf("http://%s/mcp", httpAddr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	go presetRefreshRoutine(ctx, svcs.configs, time.Minute)

	if ngrokShouldRun() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter, logger.With("component", "ngrok"))
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server error, shutting down", "error", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := svcs.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("game server shutdown error", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}
	svcs.rooms.Close()

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// ngrokShouldRun reports whether ngrok is enabled by flag or NGROK_ENABLED.
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, handler http.Handler, logger *slog.Logger) {
	// Get auth token from flag or environment (support both naming conventions)
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"rest", ngrokURL+"/api",
		"mcp", ngrokURL+"/mcp")

	tunnelServer := &http.Server{Handler: handler}
	stop := context.AfterFunc(ctx, func() { tunnelServer.Close() })
	defer stop()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured HTTP port; if unavailable,
// it starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, svcs *services, logger *slog.Logger) error {
	externalURL := fmt.Sprintf("http://localhost:%d", *httpPort)
	baseURL := externalURL

	logger.Info("checking for external API server", "url", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		if err == nil {
			resp.Body.Close()
		}
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{Handler: svcs.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	stdio := mcpserver.NewStdioServer(mcpClient.GetMCPServer())
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
