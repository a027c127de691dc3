package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/retrieve"
	"github.com/docstack/ingester-go/internal/server"
)

// NewServeCmd constructs the `ingester serve` command, which starts the HTTP
// server exposing the ingest and ask endpoints.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var storeBackend string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ingester HTTP server",
		Long: `Start the ingester HTTP server on localhost.

The server exposes POST /api/ingest, POST /api/ingest/pdf, POST /api/ask,
GET /api/health and GET /metrics.

Examples:
  ingester serve
  ingester serve --port 9090
  ingester serve --store memory
  DATABASE_URL=postgres://... REDIS_ADDR=localhost:6379 ingester serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting",
				slog.String("embedding_provider", getEnvOrDefault("EMBEDDING_PROVIDER", "deterministic")),
				slog.String("gen_provider", getEnvOrDefault("GEN_PROVIDER", "none")),
			)

			st, err := buildStore(ctx, log, storeBackend)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = st.Close() }()

			notifier, err := buildNotifier(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = notifier.Close() }()

			embedder, err := embed.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			generator, err := generate.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise generator: %w", err)
			}

			pipeline, err := ingest.NewPipeline(embedder, st, notifier)
			if err != nil {
				return fmt.Errorf("serve: failed to create pipeline: %w", err)
			}
			retriever, err := retrieve.New(embedder, st)
			if err != nil {
				return fmt.Errorf("serve: failed to create retriever: %w", err)
			}

			srv, err := server.New(pipeline, retriever, generator, &server.Config{
				Host:          host,
				Port:          port,
				Logger:        log,
				StorePinger:   server.NewStorePinger(st, storeName(storeBackend)),
				BusPinger:     server.NewBusPinger(notifier),
				APIKey:        os.Getenv("INGESTER_API_KEY"),
				ChunkMaxChars: getEnvInt("CHUNK_MAX_CHARS", ingest.DefaultMaxChars),
				ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", ingest.DefaultOverlap),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("INGESTER_HOST", "127.0.0.1"), "Host address to bind to")
	cmd.Flags().StringVar(&storeBackend, "store", "auto", "Vector store backend: auto, postgres, memory")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("INGESTER_PORT", 8080), "TCP port to listen on")

	return cmd
}
