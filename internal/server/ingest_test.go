package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHandleIngest_OK verifies the full single-chunk ingest path through the
// mux: JSON in, store-assigned ids out.
func TestHandleIngest_OK(t *testing.T) {
	t.Parallel()

	s, mem := newTestServer(t, nil)

	body := `{"name":"notes.txt","content":"grill at 200 degrees","metadata":{"source":"test"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp ingestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.RowID != 1 || resp.AuditID != 1 {
		t.Errorf("ids = %d/%d, want 1/1", resp.RowID, resp.AuditID)
	}
	if resp.DocID != "notes.txt" {
		t.Errorf("doc_id = %q, want name fallback", resp.DocID)
	}

	if got := len(mem.Audits()); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

// TestHandleIngest_Validation verifies the client-error paths.
func TestHandleIngest_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name": }`},
		{"missing name", `{"content":"text"}`},
		{"blank content", `{"name":"x","content":"   "}`},
	}

	s, _ := newTestServer(t, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d — body: %s", w.Code, w.Body.String())
			}
		})
	}
}

// multipartUpload builds a multipart body with a file part and extra fields.
func multipartUpload(t *testing.T, filename string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// TestHandleIngestPDF_PlainTextPayload verifies the multipart upload path:
// a non-PDF payload is ingested as a single page and chunked per the query
// parameters.
func TestHandleIngestPDF_PlainTextPayload(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	payload := []byte(strings.Repeat("smoke the brisket low and slow ", 10))
	buf, contentType := multipartUpload(t, "brisket.txt", payload, map[string]string{
		"doc_id": "brisket",
		"author": "pitmaster",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/pdf?max_chars=120&overlap=20", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp pdfResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.DocID != "brisket" {
		t.Errorf("doc_id = %q", resp.DocID)
	}
	if resp.Chunks < 2 {
		t.Errorf("chunks = %d, want at least 2 at a 120-char window", resp.Chunks)
	}
	for i, r := range resp.Ingested {
		if r.PageNo == nil || *r.PageNo != 1 {
			t.Errorf("chunk %d page = %v, want 1", i, r.PageNo)
		}
	}
}

// TestHandleIngestPDF_NameFromFilename verifies that the uploaded filename
// is the fallback document name.
func TestHandleIngestPDF_NameFromFilename(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	buf, contentType := multipartUpload(t, "fallback.txt", []byte("some text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/pdf", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	var resp pdfResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "fallback.txt" || resp.DocID != "fallback.txt" {
		t.Errorf("name/doc_id = %q/%q, want filename fallback", resp.Name, resp.DocID)
	}
}

// TestHandleIngestPDF_MissingFile verifies that a multipart body without a
// file part is rejected as a client error.
func TestHandleIngestPDF_MissingFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "ghost.pdf")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
