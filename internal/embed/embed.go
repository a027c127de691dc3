// Package embed defines the text embedding contract for the ingestion and
// retrieval pipelines, and its concrete backends. Passages and queries are
// embedded through separate entry points that share one vector space: each
// entry point prefixes the text with a role tag before embedding, matching
// the convention of passage/query-asymmetric embedding models so a real
// model can replace the deterministic default without touching callers.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Dimensions is the fixed length of every embedding vector produced and
// accepted by this system. The vector column in the store is declared with
// the same size — the two must never drift apart.
const Dimensions = 768

// Role tags prepended to the input text before embedding. The tag separates
// the passage and query call conventions while keeping both outputs in the
// same vector space.
const (
	passagePrefix = "passage: "
	queryPrefix   = "query: "
)

// ErrBackendUnavailable reports that a remote embedding backend could not be
// reached. Wrapped errors carry the transport detail; callers match with
// [errors.Is]. The deterministic backend never returns it.
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// Embedder converts text into fixed-length dense vectors. EmbedPassage is
// used at ingestion time and EmbedQuery at retrieval time; both must return
// exactly [Dimensions] values and be pure with respect to their input so
// stored vectors stay comparable across restarts.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// EmbedPassage embeds a document chunk for storage.
	EmbedPassage(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search question for similarity lookup.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// checkDimensions returns a descriptive error when vec is not exactly
// [Dimensions] long. All backends validate their output through this so a
// misconfigured remote model fails loudly instead of corrupting the store.
func checkDimensions(vec []float32) error {
	if len(vec) != Dimensions {
		return fmt.Errorf("embed: expected %d dimensions, got %d", Dimensions, len(vec))
	}
	return nil
}
