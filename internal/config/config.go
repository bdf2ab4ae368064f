package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=rahap_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultSchedulerInterval = 60 * time.Second
const defaultSchedulerBatchSize = 200
const defaultMetricsAddr = ":9464"

type Config struct {
	DatabaseDSN        string
	MigrationsDir      string
	SchedulerInterval  time.Duration
	SchedulerBatchSize int
	MetricsAddr        string
}

func Load() (Config, error) {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	interval := defaultSchedulerInterval
	if raw := strings.TrimSpace(os.Getenv("SCHEDULER_INTERVAL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SCHEDULER_INTERVAL: %w", err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("SCHEDULER_INTERVAL must be positive")
		}
		interval = parsed
	}

	batchSize := defaultSchedulerBatchSize
	if raw := strings.TrimSpace(os.Getenv("SCHEDULER_BATCH_SIZE")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SCHEDULER_BATCH_SIZE: %w", err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("SCHEDULER_BATCH_SIZE must be positive")
		}
		batchSize = parsed
	}

	metricsAddr := strings.TrimSpace(os.Getenv("METRICS_ADDR"))
	if metricsAddr == "" {
		metricsAddr = defaultMetricsAddr
	}

	return Config{
		DatabaseDSN:        normalizeConnectionString(conn),
		MigrationsDir:      "migrations",
		SchedulerInterval:  interval,
		SchedulerBatchSize: batchSize,
		MetricsAddr:        metricsAddr,
	}, nil
}

// normalizeConnectionString accepts either a lib/pq DSN ("host=... port=...")
// or the semicolon "Host=..;Port=.." form and returns a lib/pq DSN.
func normalizeConnectionString(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username", "user":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "sslmode":
			out = append(out, "sslmode="+val)
			hasSSLMode = true
		}
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
