package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docstack/ingester-go/internal/embed"
)

// Memory is an in-process Store using brute-force exact cosine distance.
// It backs unit tests and `serve --store memory` local runs. Unlike the
// ivfflat-indexed Postgres store it is always exact.
type Memory struct {
	// mu guards all fields below.
	mu sync.Mutex

	// records holds every stored record in insertion order.
	records []memoryRecord

	// audits holds every audit entry in insertion order.
	audits []AuditEntry

	// nextID is the next record id to assign.
	nextID int64

	// nextAuditID is the next audit id to assign.
	nextAuditID int64
}

// memoryRecord is a stored record plus its assigned id.
type memoryRecord struct {
	id  int64
	rec Record
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, nextAuditID: 1}
}

// Insert persists a record and returns its newly assigned id.
func (s *Memory) Insert(_ context.Context, rec Record) (int64, error) {
	if err := checkEmbedding(rec.Embedding); err != nil {
		return 0, fmt.Errorf("%w: got %d, want %d", err, len(rec.Embedding), embed.Dimensions)
	}

	rec.Content = sanitizeContent(rec.Content)
	rec.Embedding = append([]float32(nil), rec.Embedding...)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.records = append(s.records, memoryRecord{id: id, rec: rec})
	return id, nil
}

// Query scans all records for docID and returns the limit closest by cosine
// distance, ascending id breaking ties.
func (s *Memory) Query(_ context.Context, docID string, embedding []float32, limit int) ([]Match, error) {
	if err := checkEmbedding(embedding); err != nil {
		return nil, fmt.Errorf("%w: got %d, want %d", err, len(embedding), embed.Dimensions)
	}
	if limit <= 0 {
		limit = 5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Match
	for _, mr := range s.records {
		if mr.rec.DocID != docID {
			continue
		}
		matches = append(matches, Match{
			ID:       mr.id,
			Content:  mr.rec.Content,
			PageNo:   mr.rec.PageNo,
			Section:  mr.rec.Section,
			Distance: cosineDistance(embedding, mr.rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// InsertAudit appends one audit entry and returns its id.
func (s *Memory) InsertAudit(_ context.Context, entry AuditEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextAuditID
	s.nextAuditID++
	s.audits = append(s.audits, entry)
	return id, nil
}

// Audits returns a copy of all audit entries in insertion order.
// Used by tests to assert on the audit trail.
func (s *Memory) Audits() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.audits...)
}

// Ping always succeeds — the store lives in process memory.
func (s *Memory) Ping(_ context.Context) error { return nil }

// Close releases nothing but satisfies the Store interface.
func (s *Memory) Close() error { return nil }

// cosineDistance returns 1 - cosine similarity of a and b. Zero-magnitude
// vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
