package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "newswire",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1MB
			CORS: CORSConfig{
				Enabled:          false,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Queue: QueueConfig{
			Type:     "memory",
			Capacity: 1000,
			Redis: RedisConfig{
				Address:      "localhost:6379",
				Password:     "",
				DB:           0,
				KeyPrefix:    "newswire:signals",
				BlockTimeout: 2 * time.Second,
				EnableDedup:  false,
				DedupTTL:     time.Hour,
			},
		},
		Worker: WorkerConfig{
			PollInterval: 1 * time.Second,
			RateLimit:    0,
			RateBurst:    1,
		},
		Enrichment: EnrichmentConfig{
			APIKey:         "",
			BaseURL:        "",
			Model:          "gpt-4o-mini",
			Temperature:    0.1,
			MaxTokens:      1024,
			RequestTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "./data/news.db",
			},
		},
		Durable: DurableConfig{
			LogicalID:  "news-feed-pipeline",
			Path:       "./data/instances",
			SyncWrites: true,
			RecentSize: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    10 * time.Second,
			Sampler:    "parentbased_traceidratio",
			SampleRate: 0.1,
		},
		Shutdown: ShutdownConfig{
			Timeout:      30 * time.Second,
			DrainTimeout: 15 * time.Second,
		},
	}
}
