package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/logging"
)

// diagnoseTimeout bounds each individual dependency probe.
const diagnoseTimeout = 5 * time.Second

// NewDiagnoseCmd constructs the `ingester diagnose` command, which probes
// every configured dependency and reports per-component status.
func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check connectivity to the store, event bus, and embedding backend",
		Long: `Probe each configured dependency and report its status.

The store and event bus are pinged; the embedding and generation backends
are checked for configuration. Useful before starting the server to
confirm the environment is wired correctly.

Examples:
  ingester diagnose
  DATABASE_URL=postgres://localhost/docs ingester diagnose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			failed := false
			report := func(component string, err error) {
				if err != nil {
					failed = true
					fmt.Printf("%-12s FAIL  %v\n", component, err)
					return
				}
				fmt.Printf("%-12s OK\n", component)
			}

			st, err := buildStore(ctx, log, "auto")
			if err != nil {
				report("store", err)
			} else {
				pingCtx, cancel := context.WithTimeout(ctx, diagnoseTimeout)
				report("store", st.Ping(pingCtx))
				cancel()
				_ = st.Close()
			}

			notifier, err := buildNotifier(ctx, log)
			if err != nil {
				report("bus", err)
			} else {
				pingCtx, cancel := context.WithTimeout(ctx, diagnoseTimeout)
				report("bus", notifier.Ping(pingCtx))
				cancel()
				_ = notifier.Close()
			}

			if _, err := embed.NewFromEnv(); err != nil {
				report("embedder", err)
			} else {
				report("embedder", nil)
			}

			if _, err := generate.NewFromEnv(); err != nil {
				report("generator", err)
			} else if os.Getenv("GEN_PROVIDER") == "" || os.Getenv("GEN_PROVIDER") == "none" {
				fmt.Printf("%-12s SKIP  generation backend not configured\n", "generator")
			} else {
				report("generator", nil)
			}

			if failed {
				return fmt.Errorf("diagnose: one or more dependencies are unavailable")
			}
			return nil
		},
	}

	return cmd
}
