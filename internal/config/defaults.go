package config

// Defaults возвращает значения для ключей, которых нет в файле конфига.
// YAML декодируется поверх них.
func Defaults() Config {
	return Config{
		Site: SiteConfig{
			OffsetField:   "firstResultIndex",
			KeywordsField: "keywords",
		},
		Rod: RodConfig{
			PageTimeoutS:     60,
			WaitLoadTimeoutS: 30,
		},
		Backoff: BackoffConfig{
			MinMS:     250,
			MaxMS:     4000,
			JitterPct: 20,
		},
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:                 "consumidor-reports-parser/1.0 (+https://www.consumidor.gov.br)",
			ConnectTimeoutMS:          5000,
			TotalTimeoutMS:            30000,
			MaxRetries:                3,
			MaxIdleConnections:        100,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeoutS:    90,
			AcceptLanguage:            "pt-BR,pt;q=0.9,en;q=0.6",
		},
		RateLimit: RateLimitConfig{
			MaxConcurrentPerHost: 1,
			RPM:                  30,
		},
		Pagination: PaginationConfig{
			PageSize: 10,
		},
		Extraction: ExtractionConfig{
			Correlation: "scoped",
			DateLayout:  "02/01/2006",
		},
		Storage: StorageConfig{
			Driver:           "mongo",
			Database:         "consumidor",
			Collection:       "customerreports",
			CommandTimeoutMS: 10000,
			WriteConcurrency: 8,
			MaxRetries:       3,
		},
		Scheduler: SchedulerConfig{
			Mode: "oneshot",
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogMaxSizeMB:  50,
			LogMaxBackups: 5,
		},
	}
}
