package commands

import (
	"context"
	"fmt"
	"net/http"

	//nolint:gosec // We are using pprof for debugging
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/causelab/causeway/internal/apiserver"
	"github.com/causelab/causeway/internal/config"
	"github.com/causelab/causeway/internal/lifecycle"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/storage"
	"github.com/causelab/causeway/internal/tracing"
)

var (
	apiPort               int
	dbPath                string
	scoringConfigPath     string
	maxConcurrentRequests int
	pprofEnabled          bool
	pprofPort             int
	tracingEnabled        bool
	tracingEndpoint       string
	tracingTLSCAPath      string
	tracingTLSInsecure    bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Causeway server",
	Long: `Start the Causeway server which stores incident snapshots and
serves the analysis API.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the API server listens on")
	serverCmd.Flags().StringVar(&dbPath, "db-path", "causeway.db", "Path to the SQLite database file")
	serverCmd.Flags().StringVar(&scoringConfigPath, "scoring-config", "",
		"Path to the YAML file with scoring overrides (hot-reloaded; built-in defaults when empty)")
	serverCmd.Flags().IntVar(&maxConcurrentRequests, "max-concurrent-requests", 100, "Maximum number of concurrent API requests")
	serverCmd.Flags().BoolVar(&pprofEnabled, "pprof-enabled", false, "Enable pprof profiling server (default: false)")
	serverCmd.Flags().IntVar(&pprofPort, "pprof-port", 9999, "Port the pprof server listens on (default: 9999)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := &config.Config{
		DBPath:                dbPath,
		APIPort:               apiPort,
		ScoringConfigPath:     scoringConfigPath,
		MaxConcurrentRequests: maxConcurrentRequests,
		TracingEnabled:        tracingEnabled,
		TracingEndpoint:       tracingEndpoint,
		TracingTLSCAPath:      tracingTLSCAPath,
		TracingTLSInsecure:    tracingTLSInsecure,
	}

	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")

	logger.Info("Starting Causeway v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d DBPath=%s", cfg.APIPort, cfg.DBPath)

	manager := lifecycle.NewManager()

	// Tracing provider has no dependencies
	tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			HandleError(err, "Tracing registration error")
		}
	}

	if pprofEnabled {
		go func() {
			pprofAddr := fmt.Sprintf(":%d", pprofPort)
			logger.Info("Starting pprof server on %s", pprofAddr)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil { //nolint:gosec // We are using pprof for debugging
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	store, err := storage.Open(storage.DefaultConfig(cfg.DBPath))
	if err != nil {
		HandleError(err, "Storage initialization error")
	}
	if err := manager.Register(store); err != nil {
		HandleError(err, "Storage registration error")
	}

	scoring := config.NewScoringProvider(cfg.ScoringConfigPath)
	if err := manager.Register(scoring); err != nil {
		HandleError(err, "Scoring config registration error")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	apiComponent := apiserver.New(apiserver.Options{
		Port:                  cfg.APIPort,
		Store:                 store,
		Scoring:               scoring,
		Metrics:               m,
		Gatherer:              registry,
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		TracingProvider:       tracingProvider,
	})
	if err := manager.Register(apiComponent, store, scoring); err != nil {
		HandleError(err, "API server registration error")
	}

	logger.Info("All components registered with dependencies")
	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		HandleError(err, "Startup error")
	}

	logger.Info("Application started successfully")
	logger.Info("Listening for API requests on port %d...", cfg.APIPort)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Info("Shutdown complete")
}
