// Package store defines the vector store contract for persisting embedded
// document chunks and running nearest-neighbor queries scoped to a logical
// document, plus the append-only ingestion audit trail. Concrete
// implementations (Postgres/pgvector, in-memory) satisfy the Store interface
// so the pipeline and retriever never depend on a specific backend.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/docstack/ingester-go/internal/embed"
)

// StatusIngested is the audit status recorded for a successful ingestion.
const StatusIngested = "ingested"

// ErrDimensions reports an embedding whose length does not match the store's
// fixed vector column size. Inserts failing this check persist nothing.
var ErrDimensions = errors.New("store: embedding dimensionality mismatch")

// Record is an embedded chunk as submitted for persistence. The store assigns
// record identity — callers never pick ids.
type Record struct {
	// DocID is the logical document grouping key queries are scoped to.
	DocID string

	// Section is an optional label within the document.
	Section *string

	// PageNo is the optional 1-based page number the chunk came from.
	PageNo *int

	// ChunkID is the optional 0-based chunk order within a page.
	ChunkID *int

	// Content is the chunk text. NUL bytes are stripped before persistence.
	Content string

	// Embedding is the chunk's vector. Must be exactly embed.Dimensions long.
	Embedding []float32

	// Metadata holds arbitrary JSON-serializable key/value pairs.
	Metadata map[string]any
}

// Match is one similarity query hit, ordered by ascending cosine distance.
// Constructed per query and never persisted.
type Match struct {
	// ID is the stored record's identifier.
	ID int64 `json:"id"`

	// Content is the stored chunk text.
	Content string `json:"content"`

	// PageNo is the chunk's page number, nil when unknown.
	PageNo *int `json:"page_no"`

	// Section is the chunk's section label, nil when unset.
	Section *string `json:"section"`

	// Distance is the cosine distance to the query vector (smaller = closer).
	Distance float64 `json:"distance"`
}

// AuditEntry is one row of the append-only ingestion audit trail. Entries are
// written once per ingestion attempt and never updated or deleted.
type AuditEntry struct {
	// Name is the submitted document name.
	Name string

	// Status records the attempt outcome (StatusIngested on success).
	Status string

	// Detail is a human-readable description of the attempt.
	Detail string

	// ContentLength is the length of the ingested content in bytes.
	ContentLength int

	// Metadata echoes the ingestion metadata plus the resolved
	// doc_id/section/page_no/chunk_id identifiers.
	Metadata map[string]any
}

// Store persists embedded chunks and serves similarity queries. Each Insert
// and InsertAudit call is atomic: the row and its returned id are consistent
// and no partial row is ever visible. Queries are read-only and may run
// concurrently with inserts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Insert persists a record and returns its newly assigned id.
	// Fails with ErrDimensions when the embedding is not embed.Dimensions long.
	Insert(ctx context.Context, rec Record) (int64, error)

	// Query returns up to limit matches for the query embedding, restricted
	// to records whose DocID matches exactly, ordered by ascending cosine
	// distance with ascending id as the tiebreak.
	Query(ctx context.Context, docID string, embedding []float32, limit int) ([]Match, error)

	// InsertAudit appends one audit entry and returns its id. Independent of
	// Insert — audit rows exist even for records that were never stored.
	InsertAudit(ctx context.Context, entry AuditEntry) (int64, error)

	// Ping checks that the backing storage is reachable and provisioned.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// sanitizeContent strips NUL bytes, which Postgres TEXT columns reject.
func sanitizeContent(content string) string {
	return strings.ReplaceAll(content, "\x00", "")
}

// checkEmbedding validates the vector length against the store contract.
func checkEmbedding(vec []float32) error {
	if len(vec) != embed.Dimensions {
		return ErrDimensions
	}
	return nil
}
