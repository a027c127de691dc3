package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/events"
	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/store"
)

// ErrEmptyContent is returned when a chunk submitted for ingestion is empty
// or whitespace-only.
var ErrEmptyContent = errors.New("ingest: content must not be empty")

// Request is one chunk submitted for ingestion.
type Request struct {
	// Name is the submitted document name. Required.
	Name string

	// Content is the chunk text. Must contain at least one
	// non-whitespace character.
	Content string

	// Metadata is caller-supplied context recorded in the audit trail.
	Metadata map[string]any

	// DocID scopes the chunk for retrieval. Defaults to Name when empty.
	DocID string

	// Section, PageNo and ChunkID locate the chunk within its source
	// document; nil when not applicable.
	Section *string
	PageNo  *int
	ChunkID *int
}

// Result describes one persisted chunk.
type Result struct {
	RowID   int64   `json:"row_id"`
	AuditID int64   `json:"audit_id"`
	Name    string  `json:"name"`
	DocID   string  `json:"doc_id"`
	Section *string `json:"section"`
	PageNo  *int    `json:"page_no"`
	ChunkID *int    `json:"chunk_id"`
}

// PDFResult describes a multi-chunk document ingestion.
type PDFResult struct {
	Ingested []Result `json:"ingested"`
	Chunks   int      `json:"chunks"`
}

// Pipeline runs the ingestion sequence for each chunk: embed, insert, audit,
// notify. The first three steps must all succeed or the chunk fails;
// notification is best-effort and never fails an ingestion.
type Pipeline struct {
	embedder embed.Embedder
	store    store.Store
	notifier events.Notifier
}

// NewPipeline wires a Pipeline. A nil notifier disables event publishing.
func NewPipeline(embedder embed.Embedder, st store.Store, notifier events.Notifier) (*Pipeline, error) {
	if embedder == nil {
		return nil, errors.New("ingest: embedder is required")
	}
	if st == nil {
		return nil, errors.New("ingest: store is required")
	}
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Pipeline{embedder: embedder, store: st, notifier: notifier}, nil
}

// Ingest embeds and persists one chunk, records an audit entry, and emits a
// document_ingested event. The returned Result carries the store-assigned
// row and audit ids.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}
	docID := req.DocID
	if docID == "" {
		docID = req.Name
	}

	vec, err := p.embedder.EmbedPassage(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("ingest: embed passage: %w", err)
	}

	rowID, err := p.store.Insert(ctx, store.Record{
		DocID:     docID,
		Section:   req.Section,
		PageNo:    req.PageNo,
		ChunkID:   req.ChunkID,
		Content:   req.Content,
		Embedding: vec,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: insert chunk: %w", err)
	}

	auditID, err := p.store.InsertAudit(ctx, store.AuditEntry{
		Name:          req.Name,
		Status:        store.StatusIngested,
		Detail:        "document chunk stored with vector embedding",
		ContentLength: len(req.Content),
		Metadata:      auditMetadata(req, docID),
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: insert audit: %w", err)
	}

	ev := events.NewEvent(events.TypeDocumentIngested)
	ev.Name = req.Name
	ev.DocID = docID
	ev.RowID = rowID
	ev.AuditID = auditID
	ev.Section = req.Section
	ev.PageNo = req.PageNo
	ev.ChunkID = req.ChunkID
	if err := p.notifier.Publish(ctx, ev); err != nil {
		log.Warn("event publish failed",
			"notifier", p.notifier.Name(),
			"doc_id", docID,
			"row_id", rowID,
			"error", err)
	}

	return &Result{
		RowID:   rowID,
		AuditID: auditID,
		Name:    req.Name,
		DocID:   docID,
		Section: req.Section,
		PageNo:  req.PageNo,
		ChunkID: req.ChunkID,
	}, nil
}

// IngestPDF extracts pages from a document payload, chunks each page, and
// ingests every non-empty chunk. Chunk ids restart at zero on every page.
// A mid-document failure aborts the call; chunks already persisted remain
// queryable under the document's doc id.
func (p *Pipeline) IngestPDF(ctx context.Context, name string, data []byte, metadata map[string]any, docID string, maxChars, overlap int) (*PDFResult, error) {
	chunker := NewChunker(maxChars, overlap)
	if docID == "" {
		docID = name
	}

	var results []Result
	for _, page := range ExtractPages(data) {
		for idx, chunk := range chunker.Split(page.Text) {
			pageNo := page.Number
			chunkID := idx
			res, err := p.Ingest(ctx, Request{
				Name:     name,
				Content:  chunk,
				Metadata: metadata,
				DocID:    docID,
				PageNo:   &pageNo,
				ChunkID:  &chunkID,
			})
			if err != nil {
				return nil, fmt.Errorf("ingest: page %d chunk %d: %w", page.Number, idx, err)
			}
			results = append(results, *res)
		}
	}
	return &PDFResult{Ingested: results, Chunks: len(results)}, nil
}

// auditMetadata merges the caller's metadata with the chunk's placement
// fields. Placement keys are always present; unknown values are recorded as
// explicit nulls so every audit row carries the same shape. The caller's map
// is not mutated.
func auditMetadata(req Request, docID string) map[string]any {
	meta := make(map[string]any, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	meta["doc_id"] = docID
	meta["section"] = nil
	meta["page_no"] = nil
	meta["chunk_id"] = nil
	if req.Section != nil {
		meta["section"] = *req.Section
	}
	if req.PageNo != nil {
		meta["page_no"] = *req.PageNo
	}
	if req.ChunkID != nil {
		meta["chunk_id"] = *req.ChunkID
	}
	return meta
}
