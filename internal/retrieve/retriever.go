// Package retrieve turns a question into a ranked, bounded context block.
// The Retriever embeds the question, fetches nearest-neighbor candidates
// from the store, and renders display strings for the prompt; BuildPrompt
// concatenates them into the final grounded prompt.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/docstack/ingester-go/internal/budget"
	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/store"
)

// Default candidate counts. FetchK exceeds TopK so poor candidates can be
// dropped before prompt assembly while the full fetched set is still
// returned for inspection.
const (
	DefaultTopK   = 3
	DefaultFetchK = 5
)

// maxDisplayChars bounds each context string's content portion.
const maxDisplayChars = 900

// Retriever runs similarity search over one document's chunks.
type Retriever struct {
	embedder embed.Embedder
	store    store.Store

	// MaxContextTokens caps the estimated token size of the assembled
	// context strings. Zero selects the package default.
	MaxContextTokens int
}

// New wires a Retriever over the given embedder and store.
func New(embedder embed.Embedder, st store.Store) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retrieve: embedder is required")
	}
	if st == nil {
		return nil, errors.New("retrieve: store is required")
	}
	return &Retriever{embedder: embedder, store: st}, nil
}

// Retrieve embeds the question, queries up to fetchK candidates scoped to
// docID, and renders display strings for the first topK matches. The full
// candidate list is returned alongside the rendered contexts. Non-positive
// counts select the defaults; fetchK is raised to topK when smaller.
func (r *Retriever) Retrieve(ctx context.Context, docID, question string, topK, fetchK int) ([]string, []store.Match, error) {
	log := logging.FromContext(ctx)

	if topK <= 0 {
		topK = DefaultTopK
	}
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	if fetchK < topK {
		fetchK = topK
	}

	vec, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: embed query: %w", err)
	}
	matches, err := r.store.Query(ctx, docID, vec, fetchK)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: query store: %w", err)
	}

	n := topK
	if len(matches) < n {
		n = len(matches)
	}
	contexts := make([]string, 0, n)
	for _, m := range matches[:n] {
		contexts = append(contexts, displayString(m))
	}
	contexts = budget.TrimContext(contexts, r.MaxContextTokens)

	log.Debug("retrieved context",
		"doc_id", docID,
		"fetched", len(matches),
		"contexts", len(contexts),
		"estimated_tokens", budget.EstimateAll(contexts))
	return contexts, matches, nil
}

// displayString renders one match for prompt assembly, e.g.
// "[p.3] Preheat the grill…". Matches without a page number render "[p.?]".
// Content longer than maxDisplayChars is cut at a rune boundary and marked
// with an ellipsis.
func displayString(m store.Match) string {
	page := "?"
	if m.PageNo != nil {
		page = strconv.Itoa(*m.PageNo)
	}
	content := m.Content
	if len(content) > maxDisplayChars {
		cut := maxDisplayChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "…"
	}
	var b strings.Builder
	b.Grow(len(content) + len(page) + 5)
	b.WriteString("[p.")
	b.WriteString(page)
	b.WriteString("] ")
	b.WriteString(content)
	return b.String()
}
