package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/newswire/newswire/config"
	"github.com/newswire/newswire/pkg/api"
	"github.com/newswire/newswire/pkg/api/handlers"
	"github.com/newswire/newswire/pkg/controller"
	"github.com/newswire/newswire/pkg/durable/local"
	"github.com/newswire/newswire/pkg/enrich"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/metrics"
	"github.com/newswire/newswire/pkg/queue"
	"github.com/newswire/newswire/pkg/receiver"
	"github.com/newswire/newswire/pkg/store/sqlite"
	"github.com/newswire/newswire/pkg/telemetry/tracing"
	"github.com/newswire/newswire/pkg/version"
	"github.com/newswire/newswire/pkg/worker"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
	logicalID  = flag.String("logical-id", "", "Override the durable pipeline identity")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := buildOverrides()

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Newswire",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	log.Debug("Configuration loaded", "config", cfg.String())

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize tracing
	tracingShutdown, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Initialize metrics manager
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	// Start metrics server if enabled
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Initialize the record gateway
	gateway, err := sqlite.New(cfg.Storage.SQLite.Path, log)
	if err != nil {
		log.Error("Failed to open record store", "error", err, "path", cfg.Storage.SQLite.Path)
		os.Exit(1)
	}
	if err := gateway.Initialize(ctx); err != nil {
		log.Error("Failed to initialize record store", "error", err)
		os.Exit(1)
	}
	gateway.SetMetrics(metricsManager)
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Error("Error closing record store", "error", err)
		}
	}()
	log.Info("Initialized record store", "path", cfg.Storage.SQLite.Path)

	// Initialize the durable instance engine
	engine, err := local.New(&local.Config{
		Path:       cfg.Durable.Path,
		SyncWrites: cfg.Durable.SyncWrites,
	}, log)
	if err != nil {
		log.Error("Failed to open instance store", "error", err, "path", cfg.Durable.Path)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error("Error closing instance store", "error", err)
		}
	}()

	// Initialize the signal queue
	q, err := buildQueue(cfg, metricsManager)
	if err != nil {
		log.Error("Failed to create signal queue", "error", err, "type", cfg.Queue.Type)
		os.Exit(1)
	}
	log.Info("Initialized signal queue", "type", cfg.Queue.Type, "capacity", cfg.Queue.Capacity)

	// Initialize the receiver
	rcv, err := receiver.New(q, log)
	if err != nil {
		log.Error("Failed to create receiver", "error", err)
		os.Exit(1)
	}
	rcv.SetMetrics(metricsManager)

	// Initialize the enrichment analyzer
	analyzer, err := enrich.NewOpenAIAnalyzer(&enrich.Config{
		APIKey:         cfg.Enrichment.APIKey,
		BaseURL:        cfg.Enrichment.BaseURL,
		Model:          cfg.Enrichment.Model,
		Temperature:    float32(cfg.Enrichment.Temperature),
		MaxTokens:      cfg.Enrichment.MaxTokens,
		RequestTimeout: cfg.Enrichment.RequestTimeout,
	}, log)
	if err != nil {
		log.Error("Failed to create enrichment analyzer", "error", err)
		os.Exit(1)
	}

	// Initialize the worker
	w, err := worker.New(&worker.Config{
		PollInterval: cfg.Worker.PollInterval,
		RateLimit:    cfg.Worker.RateLimit,
		RateBurst:    cfg.Worker.RateBurst,
	}, q, analyzer, gateway, log)
	if err != nil {
		log.Error("Failed to create worker", "error", err)
		os.Exit(1)
	}
	w.SetMetrics(metricsManager)

	// Initialize and start the pipeline controller
	ctrl, err := controller.New(&controller.Config{
		LogicalID:    cfg.Durable.LogicalID,
		RecentSize:   cfg.Durable.RecentSize,
		DrainTimeout: cfg.Shutdown.DrainTimeout,
	}, engine, q, rcv, w, log)
	if err != nil {
		log.Error("Failed to create controller", "error", err)
		os.Exit(1)
	}
	if err := ctrl.Start(ctx); err != nil {
		log.Error("Failed to start pipeline", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server with handlers
	apiHandlers := &api.Handlers{
		Signals: handlers.NewSignalHandler(ctrl, log),
		Health:  handlers.NewHealthHandler(ctrl),
		Metrics: metricsManager,
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	// Start HTTP server in a separate goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Watch the config file for hot-reloadable changes
	if *configPath != "" {
		startConfigWatcher(ctx, *configPath, log)
	}

	log.Info("Newswire is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
		"instance_id", ctrl.EffectiveID(),
	)
	log.Info("Press Ctrl+C to stop")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer shutdownCancel()

	// Stop accepting HTTP traffic first
	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Drain and stop the pipeline
	log.Info("Stopping pipeline")
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during pipeline shutdown", "error", err)
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("Newswire stopped gracefully")
}

// buildQueue constructs the configured queue backend.
func buildQueue(cfg *config.Config, m *metrics.Manager) (queue.Queue, error) {
	switch cfg.Queue.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.Redis.Address,
			Password: cfg.Queue.Redis.Password,
			DB:       cfg.Queue.Redis.DB,
		})
		q, err := queue.NewRedisQueue(client, &queue.RedisConfig{
			KeyPrefix:    cfg.Queue.Redis.KeyPrefix,
			Capacity:     cfg.Queue.Capacity,
			BlockTimeout: cfg.Queue.Redis.BlockTimeout,
			EnableDedup:  cfg.Queue.Redis.EnableDedup,
			DedupTTL:     cfg.Queue.Redis.DedupTTL,
		})
		if err != nil {
			return nil, err
		}
		q.SetMetrics(m)
		return q, nil
	default:
		q, err := queue.NewChannelQueue(cfg.Queue.Capacity)
		if err != nil {
			return nil, err
		}
		q.SetMetrics(m)
		return q, nil
	}
}

// startConfigWatcher hot-reloads the log level on config file edits.
func startConfigWatcher(ctx context.Context, path string, log logger.Logger) {
	watcher, err := config.NewWatcher(path, config.NewLoader())
	if err != nil {
		log.Warn("Config watcher disabled", "error", err)
		return
	}

	watcher.OnChange(func(cfg *config.Config) {
		log.Info("Configuration reloaded", "log_level", cfg.Log.Level)
		log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	})

	go func() {
		if err := watcher.Watch(ctx); err != nil && err != context.Canceled {
			log.Warn("Config watcher stopped", "error", err)
		}
	}()
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}
	if *logicalID != "" {
		overrides["durable.logical_id"] = *logicalID
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Newswire - News Signal Enrichment Pipeline\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Newswire - news signal enrichment pipeline\n\n")
	fmt.Printf("Usage: newswire [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  newswire                                  # Run with default config\n")
	fmt.Printf("  newswire -config config.yaml              # Use specific config file\n")
	fmt.Printf("  newswire -port 9090 -log-level debug      # Override specific options\n")
	fmt.Printf("  newswire -version                         # Print version info\n")
}
