// Package budget provides token budget estimation and context trimming for
// prompt assembly. Because the generation backend is pluggable and each model
// ships its own tokenizer, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English text; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for the retrieved
	// context block of an assembled prompt. Conservative enough to fit
	// within 8k-context models while leaving room for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateAll returns the estimated total token count for a slice of context
// strings, including a small per-block overhead for the joining blank lines.
func EstimateAll(parts []string) int {
	total := 0
	for _, p := range parts {
		total += 1
		total += Estimate(p)
	}
	return total
}

// TrimContext drops context blocks from the tail until the estimated total
// fits within maxTokens. Blocks are ranked best-first by the retriever, so
// trimming from the tail discards the least relevant matches. If maxTokens
// is zero or negative, DefaultMaxContextTokens is used. If even a single
// block exceeds the budget it is kept — the retriever already bounds each
// block's length, and an empty context is worse than a long one.
func TrimContext(contexts []string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	if len(contexts) == 0 {
		return contexts
	}

	kept := contexts
	for len(kept) > 1 && EstimateAll(kept) > maxTokens {
		kept = kept[:len(kept)-1]
	}
	return kept
}
