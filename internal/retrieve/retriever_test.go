package retrieve

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/store"
)

func ingestChunk(t *testing.T, mem *store.Memory, docID, content string, pageNo *int) {
	t.Helper()
	vec, err := embed.NewDeterministic().EmbedPassage(context.Background(), content)
	if err != nil {
		t.Fatalf("embed passage: %v", err)
	}
	if _, err := mem.Insert(context.Background(), store.Record{
		DocID:     docID,
		PageNo:    pageNo,
		Content:   content,
		Embedding: vec,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestRetrieveEndToEnd(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	page := 1
	ingestChunk(t, mem, "bbq", "Preheat the grill to 200 degrees", &page)

	r, err := New(embed.NewDeterministic(), mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	contexts, matches, err := r.Retrieve(context.Background(), "bbq", "What temperature?", 1, 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].PageNo == nil || *matches[0].PageNo != 1 {
		t.Errorf("match page = %v, want 1", matches[0].PageNo)
	}

	prompt := BuildPrompt(contexts, "What temperature?")
	if !strings.Contains(prompt, "[p.1]") {
		t.Errorf("prompt missing page citation:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Preheat the grill to 200 degrees") {
		t.Errorf("prompt missing chunk content:\n%s", prompt)
	}
}

func TestRetrieveTopKBoundsContexts(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	for _, content := range []string{
		"alpha chunk", "bravo chunk", "charlie chunk", "delta chunk", "echo chunk",
	} {
		ingestChunk(t, mem, "doc", content, nil)
	}

	r, err := New(embed.NewDeterministic(), mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	contexts, matches, err := r.Retrieve(context.Background(), "doc", "which chunk?", 3, 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(matches) != 5 {
		t.Errorf("fetched %d matches, want 5", len(matches))
	}
	if len(contexts) != 3 {
		t.Errorf("rendered %d contexts, want 3", len(contexts))
	}
}

func TestRetrieveRaisesFetchKToTopK(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	for _, content := range []string{"one", "two", "three"} {
		ingestChunk(t, mem, "doc", content, nil)
	}

	r, err := New(embed.NewDeterministic(), mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, matches, err := r.Retrieve(context.Background(), "doc", "q", 3, 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("fetched %d matches, want 3 after raising fetch_k", len(matches))
	}
}

func TestRetrieveUnknownDocument(t *testing.T) {
	t.Parallel()

	r, err := New(embed.NewDeterministic(), store.NewMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	contexts, matches, err := r.Retrieve(context.Background(), "missing", "anything?", 0, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(contexts) != 0 || len(matches) != 0 {
		t.Errorf("expected empty result, got %d contexts, %d matches", len(contexts), len(matches))
	}
}

func TestDisplayStringTruncation(t *testing.T) {
	t.Parallel()

	page := 7
	long := strings.Repeat("x", maxDisplayChars+200)
	got := displayString(store.Match{PageNo: &page, Content: long})
	if !strings.HasPrefix(got, "[p.7] ") {
		t.Errorf("missing page marker: %q", got[:20])
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis marker")
	}
	body := strings.TrimSuffix(strings.TrimPrefix(got, "[p.7] "), "…")
	if len(body) != maxDisplayChars {
		t.Errorf("content length = %d, want %d", len(body), maxDisplayChars)
	}
}

func TestDisplayStringRuneBoundary(t *testing.T) {
	t.Parallel()

	// Multi-byte runes straddling the cut point must not be split. The
	// leading "a" shifts every two-byte rune onto an odd offset so the
	// cut lands mid-rune.
	long := "a" + strings.Repeat("é", maxDisplayChars)
	got := displayString(store.Match{Content: long})
	if !strings.HasPrefix(got, "[p.?] ") {
		t.Errorf("missing unknown-page marker: %q", got[:20])
	}
	body := strings.TrimSuffix(strings.TrimPrefix(got, "[p.?] "), "…")
	if !utf8.ValidString(body) {
		t.Fatalf("truncation split a rune: %q", body[len(body)-4:])
	}
	if len(body) >= maxDisplayChars+len("a") {
		t.Errorf("content length = %d, want < %d", len(body), maxDisplayChars+1)
	}
}

func TestDisplayStringUnknownPage(t *testing.T) {
	t.Parallel()

	got := displayString(store.Match{Content: "short"})
	if got != "[p.?] short" {
		t.Errorf("got %q", got)
	}
}

func TestBuildPromptShape(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt([]string{"[p.1] first", "[p.2] second"}, "How many?")
	if !strings.Contains(prompt, "[p.1] first\n\n[p.2] second") {
		t.Errorf("contexts not joined by blank line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: How many?\n") {
		t.Errorf("missing question line:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "Answer:\n") {
		t.Errorf("missing answer cue:\n%s", prompt)
	}
	if !strings.Contains(prompt, "ONLY") {
		t.Errorf("missing grounding instruction:\n%s", prompt)
	}
}
