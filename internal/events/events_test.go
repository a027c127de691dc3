package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewEvent_PopulatesIDAndTimestamp(t *testing.T) {
	t.Parallel()

	ev := NewEvent(TypeDocumentIngested)
	if ev.ID == "" {
		t.Error("event id must be set")
	}
	if ev.Type != TypeDocumentIngested {
		t.Errorf("type: want %q, got %q", TypeDocumentIngested, ev.Type)
	}
	if ev.Timestamp == 0 {
		t.Error("timestamp must be set")
	}

	other := NewEvent(TypePing)
	if other.ID == ev.ID {
		t.Error("event ids must be unique per event")
	}
}

func TestEvent_JSONShape(t *testing.T) {
	t.Parallel()

	page := 2
	ev := NewEvent(TypeDocumentIngested)
	ev.Name = "manual.pdf"
	ev.DocID = "manual"
	ev.RowID = 7
	ev.AuditID = 9
	ev.PageNo = &page

	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["event"] != TypeDocumentIngested {
		t.Errorf("event field: got %v", decoded["event"])
	}
	if decoded["doc_id"] != "manual" {
		t.Errorf("doc_id field: got %v", decoded["doc_id"])
	}
	if decoded["page_no"] != float64(2) {
		t.Errorf("page_no field: got %v", decoded["page_no"])
	}
	// Optional identifiers serialize as explicit nulls so subscribers see
	// a stable shape.
	if _, ok := decoded["section"]; !ok {
		t.Error("section field must be present even when nil")
	}
}

func TestNop_AllOperationsSucceed(t *testing.T) {
	t.Parallel()

	var n Nop
	ctx := context.Background()

	if err := n.Publish(ctx, NewEvent(TypePing)); err != nil {
		t.Errorf("publish: %v", err)
	}
	if err := n.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if n.Name() != "nop" {
		t.Errorf("name: got %q", n.Name())
	}
}
