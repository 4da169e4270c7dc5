package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newswire/newswire/config"
	"github.com/newswire/newswire/pkg/api"
	"github.com/newswire/newswire/pkg/api/handlers"
	"github.com/newswire/newswire/pkg/controller"
	"github.com/newswire/newswire/pkg/durable/local"
	"github.com/newswire/newswire/pkg/enrich"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/queue"
	"github.com/newswire/newswire/pkg/receiver"
	"github.com/newswire/newswire/pkg/store/sqlite"
	"github.com/newswire/newswire/pkg/worker"
)

func TestServerStartup(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 18080 // Use different port for testing
	cfg.Storage.SQLite.Path = filepath.Join(tmpDir, "news.db")

	log := logger.New(&logger.Config{
		Level:  logger.InfoLevel,
		Format: "json",
		Output: "stdout",
	})

	ctx := context.Background()

	gateway, err := sqlite.New(cfg.Storage.SQLite.Path, log)
	if err != nil {
		t.Fatalf("Failed to open record store: %v", err)
	}
	defer gateway.Close()
	if err := gateway.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize record store: %v", err)
	}

	engine, err := local.New(&local.Config{InMemory: true}, log)
	if err != nil {
		t.Fatalf("Failed to open instance store: %v", err)
	}
	defer engine.Close()

	q, err := queue.NewChannelQueue(cfg.Queue.Capacity)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}

	rcv, err := receiver.New(q, log)
	if err != nil {
		t.Fatalf("Failed to create receiver: %v", err)
	}

	analyzer, err := enrich.NewOpenAIAnalyzer(&enrich.Config{
		APIKey:         "test-key",
		Model:          cfg.Enrichment.Model,
		Temperature:    float32(cfg.Enrichment.Temperature),
		MaxTokens:      cfg.Enrichment.MaxTokens,
		RequestTimeout: cfg.Enrichment.RequestTimeout,
	}, log)
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	w, err := worker.New(&worker.Config{
		PollInterval: cfg.Worker.PollInterval,
	}, q, analyzer, gateway, log)
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}

	ctrl, err := controller.New(&controller.Config{
		LogicalID:    "startup-test",
		RecentSize:   cfg.Durable.RecentSize,
		DrainTimeout: time.Second,
	}, engine, q, rcv, w, log)
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("Failed to start pipeline: %v", err)
	}
	defer ctrl.Shutdown(ctx)

	httpServer := api.NewHTTPServer(cfg, log, &api.Handlers{
		Signals: handlers.NewSignalHandler(ctrl, log),
		Health:  handlers.NewHealthHandler(ctrl),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-serverErrChan:
		t.Fatalf("Server failed to start: %v", err)
	default:
	}

	for _, path := range []string{"/health", "/ready", "/status", "/api/v1/stats"} {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", cfg.Server.Port, path))
		if err != nil {
			t.Fatalf("Failed to call %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned status %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Failed to shutdown server: %v", err)
	}
}

func TestBuildOverrides(t *testing.T) {
	// Save original values
	origAppName := *appName
	origServerPort := *serverPort
	origLogLevel := *logLevel
	origDebugMode := *debugMode
	origLogicalID := *logicalID

	// Restore original values after test
	defer func() {
		*appName = origAppName
		*serverPort = origServerPort
		*logLevel = origLogLevel
		*debugMode = origDebugMode
		*logicalID = origLogicalID
	}()

	// Test with no overrides
	*appName = ""
	*serverPort = 0
	*logLevel = ""
	*debugMode = false
	*logicalID = ""

	overrides := buildOverrides()
	if len(overrides) != 0 {
		t.Errorf("Expected empty overrides, got %d items", len(overrides))
	}

	// Test with all overrides
	*appName = "test-app"
	*serverPort = 9090
	*logLevel = "debug"
	*debugMode = true
	*logicalID = "custom-pipeline"

	overrides = buildOverrides()
	if len(overrides) != 5 {
		t.Errorf("Expected 5 overrides, got %d", len(overrides))
	}

	if overrides["app.name"] != "test-app" {
		t.Errorf("Expected app.name=test-app, got %v", overrides["app.name"])
	}
	if overrides["server.port"] != 9090 {
		t.Errorf("Expected server.port=9090, got %v", overrides["server.port"])
	}
	if overrides["log.level"] != "debug" {
		t.Errorf("Expected log.level=debug, got %v", overrides["log.level"])
	}
	if overrides["app.debug"] != true {
		t.Errorf("Expected app.debug=true, got %v", overrides["app.debug"])
	}
	if overrides["durable.logical_id"] != "custom-pipeline" {
		t.Errorf("Expected durable.logical_id=custom-pipeline, got %v", overrides["durable.logical_id"])
	}
}

func TestPrintVersion(t *testing.T) {
	// Redirect stdout to capture output
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	printVersion()

	w.Close()
	os.Stdout = oldStdout

	buf := make([]byte, 1024)
	n, _ := r.Read(buf)
	output := string(buf[:n])

	expectedStrings := []string{"Newswire", "Version:", "Build Time:", "Git Commit:", "Go Version:"}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, but it didn't. Output: %s", expected, output)
		}
	}
}

func TestPrintHelp(t *testing.T) {
	// Redirect stdout to capture output
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	printHelp()

	w.Close()
	os.Stdout = oldStdout

	buf := make([]byte, 2048)
	n, _ := r.Read(buf)
	output := string(buf[:n])

	expectedStrings := []string{"Newswire", "Usage:", "Options:", "Examples:"}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, but it didn't. Output: %s", expected, output)
		}
	}
}
