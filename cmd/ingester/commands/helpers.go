package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docstack/ingester-go/internal/events"
	"github.com/docstack/ingester-go/internal/store"
)

// defaultEventChannel is the Redis pub/sub channel used when EVENT_CHANNEL
// is not set.
const defaultEventChannel = "ingestion-events"

// buildStore opens the vector store. backend is "auto" (DATABASE_URL selects
// Postgres, otherwise in-memory), "postgres", or "memory". Postgres ensures
// the schema exists unless DB_SCHEMA_ENSURE=false. The in-memory store lets
// the system run without any setup, at the cost of persistence.
func buildStore(ctx context.Context, log *slog.Logger, backend string) (store.Store, error) {
	dsn := os.Getenv("DATABASE_URL")

	switch backend {
	case "memory":
		log.Info("store: using in-memory store, data will not persist")
		return store.NewMemory(), nil
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("store backend postgres requires DATABASE_URL")
		}
	case "auto", "":
		if dsn == "" {
			log.Warn("store: DATABASE_URL not set — using in-memory store, data will not persist")
			return store.NewMemory(), nil
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q — valid values: auto, postgres, memory", backend)
	}

	pg, err := store.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if getEnvOrDefault("DB_SCHEMA_ENSURE", "true") != "false" {
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Info("store: postgres ready")
	return pg, nil
}

// buildNotifier connects the event bus selected by the environment.
// REDIS_ADDR selects Redis pub/sub; otherwise publishing is a no-op.
func buildNotifier(ctx context.Context, log *slog.Logger) (events.Notifier, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info("events: REDIS_ADDR not set — event publishing disabled")
		return events.Nop{}, nil
	}

	notifier, err := events.NewRedisNotifier(ctx, &events.RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		Channel:  getEnvOrDefault("EVENT_CHANNEL", defaultEventChannel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("events: redis notifier ready",
		slog.String("channel", getEnvOrDefault("EVENT_CHANNEL", defaultEventChannel)))
	return notifier, nil
}

// storeName labels the active store backend for health responses.
func storeName(backend string) string {
	switch backend {
	case "memory":
		return "memory"
	case "postgres":
		return "postgres"
	}
	if os.Getenv("DATABASE_URL") != "" {
		return "postgres"
	}
	return "memory"
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses the named environment variable as an int, returning
// fallback when unset or malformed.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
