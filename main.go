// Command game-session-relay starts the game session relay server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the WebSocket relay, the
//     read-only REST API, /metrics, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal relay if none is available
//
// "validate" checks relay JSON config files without starting anything.
//
// Flags control host/port, origin checks, buffer sizes, debug logging, and
// optional ngrok tunneling for easy external access during development. Every
// flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/game-session-relay/api"
	"github.com/wricardo/game-session-relay/config"
	"github.com/wricardo/game-session-relay/game/service"
	"github.com/wricardo/game-session-relay/metrics"
	"github.com/wricardo/game-session-relay/transport/mcp"
	"github.com/wricardo/game-session-relay/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Game Session Relay"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// flags are shared by every mode. urfave/cli v3 flags are visible to subcommands.
func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "JSON config file applied before flags",
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultPort,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.StringFlag{
			Name:    "allowed-origins",
			Usage:   "Comma-separated WebSocket origins to accept (empty accepts all)",
			Sources: cli.EnvVars("ALLOWED_ORIGINS"),
		},
		&cli.IntFlag{
			Name:    "send-buffer",
			Value:   config.DefaultSendBuffer,
			Usage:   "Outbound messages queued per connection before it is dropped",
			Sources: cli.EnvVars("SEND_BUFFER"),
		},
		&cli.Int64Flag{
			Name:    "max-message-size",
			Value:   config.DefaultMaxMessageSize,
			Usage:   "Largest inbound WebSocket frame in bytes",
			Sources: cli.EnvVars("MAX_MESSAGE_SIZE"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// newApp builds the command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "game-session-relay",
		Usage:   AppName,
		Version: Version,
		Flags:   flags(),
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with WebSocket relay, REST API, metrics, and MCP endpoint (default)",
				Action:  runServe,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal relay if none is reachable",
				Action:  runStdioMCP,
			},
			{
				Name:      "validate",
				Usage:     "Validate relay JSON config files",
				ArgsUsage: "<file>...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validateConfigFiles(os.Stdout, cmd.Args().Slice())
				},
			},
		},
	}
}

// main loads .env, then runs the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildConfig merges defaults, the optional config file and explicitly set flags.
func buildConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("allowed-origins") {
		cfg.AllowedOrigins = config.ParseOrigins(cmd.String("allowed-origins"))
	}
	if cmd.IsSet("send-buffer") {
		cfg.SendBuffer = cmd.Int("send-buffer")
	}
	if cmd.IsSet("max-message-size") {
		cfg.MaxMessageSize = cmd.Int64("max-message-size")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// errInvalidConfigFiles reports that at least one validated file failed.
var errInvalidConfigFiles = errors.New("some configurations have errors")

// validateConfigFiles loads each file, printing a concise report.
func validateConfigFiles(out io.Writer, paths []string) error {
	if len(paths) == 0 {
		return errors.New("no config files given")
	}

	allValid := true
	for _, path := range paths {
		fmt.Fprintf(out, "%s %s\n", strings.Repeat("=", 20), path)

		cfg, err := config.Load(path)
		if err != nil {
			allValid = false
			fmt.Fprintf(out, "❌ INVALID\n  ❌ %v\n", err)
			continue
		}
		fmt.Fprintf(out, "✅ VALID (listen %s, send buffer %d, max message %d bytes)\n",
			cfg.Addr(), cfg.SendBuffer, cfg.MaxMessageSize)
	}

	if !allValid {
		return errInvalidConfigFiles
	}
	fmt.Fprintln(out, "✅ All configurations are valid!")
	return nil
}

// setupLogging mirrors the debug flag onto the standard logger.
func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// services bundles everything one relay process runs.
type services struct {
	relay    *service.Relay
	hub      *websocket.Hub
	registry *prometheus.Registry
}

// initializeServices wires metrics, the relay and the WebSocket hub.
func initializeServices(cfg *config.Config) *services {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	relay := service.NewRelay(
		service.WithRecorder(metrics.New(registry)),
		service.WithDebug(cfg.Debug),
	)

	hub := websocket.NewHub(relay,
		websocket.WithSendBuffer(cfg.SendBuffer),
		websocket.WithMaxMessageSize(cfg.MaxMessageSize),
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	return &services{relay: relay, hub: hub, registry: registry}
}

// apiHandler returns the REST, WebSocket and metrics surface.
func (s *services) apiHandler() http.Handler {
	return api.NewServer(s.relay, s.hub,
		api.WithMetricsHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})),
	)
}

// mcpHandler serves MCP JSON-RPC messages over POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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

// mainRouter combines the API server with the /mcp endpoint.
func (s *services) mainRouter(baseURL string) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("/", s.apiHandler())
	router.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return router
}

// runServe starts the HTTP server with the WebSocket relay, REST API, metrics,
// and an /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.Debug)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := initializeServices(cfg)

	hubDone := make(chan struct{})
	go func() {
		svc.hub.Run(ctx)
		close(hubDone)
	}()

	addr := cfg.Addr()
	router := svc.mainRouter("http://" + loopbackAddr(cfg))

	// No write timeout: WebSocket connections are long-lived.
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("WebSocket relay: ws://%s/ws", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("Metrics: http://%s/metrics", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg.Ngrok, router)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case runErr = <-serveErr:
		log.Printf("%v", runErr)
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	<-hubDone
	log.Println("Server stopped")
	return runErr
}

// runNgrokTunnel exposes handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, cfg config.Ngrok, handler http.Handler) {
	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  WebSocket relay (ngrok): %s/ws", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// loopbackAddr is the address local tools use to reach this process.
func loopbackAddr(cfg *config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// relayReachable reports whether a relay answers /health at baseURL.
func relayReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server.
// It reuses a relay already listening on the configured port; if none answers,
// it starts an internal relay on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.Debug)

	externalURL := "http://" + loopbackAddr(cfg)
	log.Printf("Checking for external relay at %s...", externalURL)

	baseURL := externalURL
	if relayReachable(externalURL) {
		log.Printf("External relay found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external relay found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		svc := initializeServices(cfg)
		go svc.hub.Run(ctx)

		httpServer := &http.Server{Handler: svc.apiHandler()}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (relay at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
