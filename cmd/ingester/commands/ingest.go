package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/logging"
)

// NewIngestCmd constructs the `ingester ingest` command, which ingests a
// file or inline text into the vector store from the command line.
func NewIngestCmd() *cobra.Command {
	var docID string
	var text string
	var maxChars int
	var overlap int

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a document into the vector store",
		Long: `Ingest a document into the vector store.

Give a file path (PDF or plain text) to run the full page-extraction and
chunking pipeline, or --text to ingest a single inline chunk.

Examples:
  ingester ingest manual.pdf
  ingester ingest --doc-id bbq manual.pdf
  ingester ingest --doc-id bbq --text "Preheat the grill to 200 degrees"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(args) == 0 && text == "" {
				return fmt.Errorf("ingest: provide a file path or --text")
			}

			st, err := buildStore(ctx, log, "auto")
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = st.Close() }()

			notifier, err := buildNotifier(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = notifier.Close() }()

			embedder, err := embed.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}

			pipeline, err := ingest.NewPipeline(embedder, st, notifier)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			if text != "" {
				name := docID
				if name == "" {
					name = "inline"
				}
				res, err := pipeline.Ingest(ctx, ingest.Request{
					Name:    name,
					Content: text,
					DocID:   docID,
				})
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				fmt.Printf("ingested 1 chunk (doc_id=%s, row_id=%d)\n", res.DocID, res.RowID)
				return nil
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("ingest: failed to read %q: %w", path, err)
			}
			name := filepath.Base(path)

			res, err := pipeline.IngestPDF(ctx, name, data, nil, docID, maxChars, overlap)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			resolvedDocID := docID
			if resolvedDocID == "" {
				resolvedDocID = name
			}
			log.Info("document ingested",
				slog.String("name", name),
				slog.String("doc_id", resolvedDocID),
				slog.Int("chunks", res.Chunks),
			)
			fmt.Printf("ingested %d chunks (doc_id=%s)\n", res.Chunks, resolvedDocID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Logical document id (defaults to the file name)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Ingest this text as a single chunk instead of a file")
	cmd.Flags().IntVar(&maxChars, "max-chars", getEnvInt("CHUNK_MAX_CHARS", ingest.DefaultMaxChars), "Chunk window size in characters")
	cmd.Flags().IntVar(&overlap, "overlap", getEnvInt("CHUNK_OVERLAP", ingest.DefaultOverlap), "Chunk overlap in characters")

	return cmd
}
