package store

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/docstack/ingester-go/internal/embed"
)

// basisVector returns a 768-dim vector with a single 1 at index i.
func basisVector(i int) []float32 {
	v := make([]float32, embed.Dimensions)
	v[i] = 1
	return v
}

// mixVector returns a 768-dim vector with equal weight on indexes i and j,
// sitting at 45° to both basis vectors.
func mixVector(i, j int) []float32 {
	v := make([]float32, embed.Dimensions)
	v[i] = 1
	v[j] = 1
	return v
}

// insertDoc inserts a record and fails the test on error.
func insertDoc(t *testing.T, s *Memory, docID string, vec []float32, content string) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), Record{
		DocID:     docID,
		Content:   content,
		Embedding: vec,
	})
	if err != nil {
		t.Fatalf("insert %q: %v", content, err)
	}
	return id
}

func TestMemory_QueryOrderedByDistance(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	// Distances from the probe basisVector(0):
	// exact match → 0, 45° mix → ~0.293, orthogonal → 1.
	farID := insertDoc(t, s, "doc", basisVector(1), "far")
	nearID := insertDoc(t, s, "doc", basisVector(0), "near")
	midID := insertDoc(t, s, "doc", mixVector(0, 1), "mid")

	matches, err := s.Query(ctx, "doc", basisVector(0), 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("want 2 matches, got %d", len(matches))
	}
	if matches[0].ID != nearID || matches[1].ID != midID {
		t.Errorf("wrong order: got ids %d, %d; want %d, %d",
			matches[0].ID, matches[1].ID, nearID, midID)
	}
	if matches[0].Distance > 1e-9 {
		t.Errorf("exact match distance: want ~0, got %v", matches[0].Distance)
	}
	if math.Abs(matches[1].Distance-(1-1/math.Sqrt2)) > 1e-6 {
		t.Errorf("45° distance: want ~%v, got %v", 1-1/math.Sqrt2, matches[1].Distance)
	}
	_ = farID
}

func TestMemory_QueryScopedToDocID(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	insertDoc(t, s, "A", basisVector(0), "belongs to A")
	insertDoc(t, s, "B", basisVector(0), "belongs to B")

	matches, err := s.Query(ctx, "A", basisVector(0), 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("want 1 match, got %d", len(matches))
	}
	if matches[0].Content != "belongs to A" {
		t.Errorf("doc scoping leaked: got %q", matches[0].Content)
	}
}

func TestMemory_TiesBreakByAscendingID(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	first := insertDoc(t, s, "doc", basisVector(0), "first")
	second := insertDoc(t, s, "doc", basisVector(0), "second")

	matches, err := s.Query(ctx, "doc", basisVector(0), 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if matches[0].ID != first || matches[1].ID != second {
		t.Errorf("tiebreak: got ids %d, %d; want %d, %d",
			matches[0].ID, matches[1].ID, first, second)
	}
}

func TestMemory_InsertRejectsWrongDimensions(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	_, err := s.Insert(context.Background(), Record{
		DocID:     "doc",
		Content:   "text",
		Embedding: make([]float32, 10),
	})
	if err == nil {
		t.Fatal("want dimensionality error, got nil")
	}
	if !errors.Is(err, ErrDimensions) {
		t.Errorf("want ErrDimensions, got %v", err)
	}
}

func TestMemory_InsertStripsNUL(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	_, err := s.Insert(ctx, Record{
		DocID:     "doc",
		Content:   "hot\x00dog",
		Embedding: basisVector(0),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := s.Query(ctx, "doc", basisVector(0), 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if matches[0].Content != "hotdog" {
		t.Errorf("NUL not stripped: got %q", matches[0].Content)
	}
}

func TestMemory_AuditIDsIncrement(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	a, err := s.InsertAudit(ctx, AuditEntry{Name: "one", Status: StatusIngested})
	if err != nil {
		t.Fatalf("first audit: %v", err)
	}
	b, err := s.InsertAudit(ctx, AuditEntry{Name: "two", Status: StatusIngested})
	if err != nil {
		t.Fatalf("second audit: %v", err)
	}
	if b != a+1 {
		t.Errorf("audit ids: want %d then %d, got %d", a, a+1, b)
	}
	if got := len(s.Audits()); got != 2 {
		t.Errorf("want 2 audit entries, got %d", got)
	}
}

func TestCosineDistance_ZeroVectorIsMaximallyDistant(t *testing.T) {
	t.Parallel()

	if d := cosineDistance(make([]float32, 4), []float32{1, 0, 0, 0}); d != 1 {
		t.Errorf("zero vector distance: want 1, got %v", d)
	}
}
