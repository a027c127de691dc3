package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// Deterministic is the default Embedder. It derives a reproducible 768-dim
// vector from successive SHA-256 digests of the tagged text, so the system
// runs end-to-end with no model dependency. It is a placeholder for retrieval
// plumbing, not a semantic embedding — swap in a real backend via
// EMBEDDING_PROVIDER when embedding quality matters.
//
// The mapping: hash tag+text concatenated with an incrementing 32-bit
// big-endian counter, slice each digest into 4-byte groups, divide each
// group's unsigned big-endian value by 0xFFFFFFFF, and keep consuming
// digests until exactly 768 floats in [0,1] are collected.
type Deterministic struct{}

// NewDeterministic constructs the deterministic hash-based Embedder.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// EmbedPassage embeds a document chunk. Pure function of text; never fails.
func (d *Deterministic) EmbedPassage(_ context.Context, text string) ([]float32, error) {
	return hashVector(passagePrefix + text), nil
}

// EmbedQuery embeds a search question. Pure function of text; never fails.
func (d *Deterministic) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return hashVector(queryPrefix + text), nil
}

// hashVector expands seed text into exactly Dimensions floats in [0,1].
func hashVector(text string) []float32 {
	seed := []byte(text)
	buf := make([]byte, len(seed)+4)
	copy(buf, seed)

	vals := make([]float32, 0, Dimensions)
	for counter := uint32(0); len(vals) < Dimensions; counter++ {
		binary.BigEndian.PutUint32(buf[len(seed):], counter)
		digest := sha256.Sum256(buf)

		for i := 0; i+4 <= len(digest) && len(vals) < Dimensions; i += 4 {
			group := binary.BigEndian.Uint32(digest[i : i+4])
			vals = append(vals, float32(float64(group)/float64(0xFFFFFFFF)))
		}
	}
	return vals
}
