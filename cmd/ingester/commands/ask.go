package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/retrieve"
)

// NewAskCmd constructs the `ingester ask` command, which retrieves context
// for a question and optionally generates an answer.
func NewAskCmd() *cobra.Command {
	var docID string
	var topK int
	var fetchK int
	var doGenerate bool
	var modelID string
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Retrieve context for a question, optionally generating an answer",
		Long: `Retrieve the most relevant chunks of a document for a question.

Prints the retrieved context passages. With --generate, the assembled
prompt is sent to the configured generation backend and the answer is
printed as well.

Examples:
  ingester ask --doc-id bbq "What temperature should the grill be?"
  ingester ask --doc-id bbq --generate "What temperature should the grill be?"
  ingester ask --doc-id bbq --generate --model llama3 "Summarise the manual"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			question := args[0]
			if docID == "" {
				return fmt.Errorf("ask: --doc-id is required")
			}

			st, err := buildStore(ctx, log, "auto")
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = st.Close() }()

			embedder, err := embed.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			retriever, err := retrieve.New(embedder, st)
			if err != nil {
				return fmt.Errorf("ask: failed to create retriever: %w", err)
			}

			contexts, _, err := retriever.Retrieve(ctx, docID, question, topK, fetchK)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if len(contexts) == 0 {
				fmt.Println("no matching chunks found")
			}
			for _, c := range contexts {
				fmt.Println(c)
				fmt.Println()
			}

			prompt := retrieve.BuildPrompt(contexts, question)
			if showPrompt {
				fmt.Println("--- prompt ---")
				fmt.Println(prompt)
			}

			if !doGenerate {
				return nil
			}

			gen, err := generate.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise generator: %w", err)
			}
			answer, err := gen.Generate(ctx, prompt, modelID)
			if err != nil {
				return fmt.Errorf("ask: generation failed: %w", err)
			}
			fmt.Println("--- answer ---")
			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Logical document id to search (required)")
	cmd.Flags().IntVar(&topK, "top-k", retrieve.DefaultTopK, "Number of context passages to keep")
	cmd.Flags().IntVar(&fetchK, "fetch-k", retrieve.DefaultFetchK, "Number of nearest neighbours to fetch")
	cmd.Flags().BoolVarP(&doGenerate, "generate", "g", false, "Generate an answer with the configured backend")
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Override the generation model for this question")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the assembled prompt")

	return cmd
}
