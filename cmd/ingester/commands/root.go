// Package commands defines all Cobra CLI commands for the ingester binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docstack/ingester-go/internal/audit"
	"github.com/docstack/ingester-go/internal/config"
	"github.com/docstack/ingester-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ingester",
		Short: "ingester — document ingestion and retrieval service",
		Long: `ingester chunks documents, embeds them into a vector store, and answers
natural-language questions against the ingested content with page-cited,
grounded prompts.

Storage is Postgres with the pgvector extension (DATABASE_URL), with an
in-memory store as the zero-configuration fallback. Operational events are
published to Redis pub/sub when REDIS_ADDR is set.

Configuration is read from env vars or a YAML config file
(~/.ingester/config.yaml). See 'ingester --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A local .env is applied first so the YAML loader and audit
			// see the same environment the service will run with.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ingester/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewDiagnoseCmd(),
		NewVersionCmd(),
	)

	return root
}
