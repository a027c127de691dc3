package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildTwoPagePDF assembles a minimal two-page PDF in memory. Page 1 carries
// real text; page 2 references a content stream object that does not exist,
// so its text cannot be extracted. Cross-reference offsets are computed while
// writing so the file is always well formed.
func buildTwoPagePDF() []byte {
	content := "BT /F1 12 Tf 72 720 Td (Preheat the grill to 200 degrees) Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 6 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 7 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefPos)
	return buf.Bytes()
}

func TestExtractPagesPDF(t *testing.T) {
	t.Parallel()

	pages := ExtractPages(buildTwoPagePDF())
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d; want 1, 2", pages[0].Number, pages[1].Number)
	}
	if !strings.Contains(pages[0].Text, "Preheat the grill") {
		t.Errorf("page 1 text = %q, want the content stream's text", pages[0].Text)
	}
	// Page 2's content stream is missing; extraction degrades to empty text
	// without failing the document.
	if pages[1].Text != "" {
		t.Errorf("page 2 text = %q, want empty", pages[1].Text)
	}
}

func TestExtractPagesPlainTextFallback(t *testing.T) {
	t.Parallel()

	pages := ExtractPages([]byte("just some plain text"))
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("page number = %d, want 1", pages[0].Number)
	}
	if pages[0].Text != "just some plain text" {
		t.Errorf("unexpected text: %q", pages[0].Text)
	}
}

func TestExtractPagesBinaryFallback(t *testing.T) {
	t.Parallel()

	// Not a PDF and not valid UTF-8; the fallback must still produce a
	// single page with the decodable runes.
	data := []byte{0xff, 0xfe, 'h', 'i', 0x00, 0xff, '!'}
	pages := ExtractPages(data)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Text != "hi!" {
		t.Errorf("decoded text = %q, want %q", pages[0].Text, "hi!")
	}
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"valid utf8", []byte("héllo wörld"), "héllo wörld"},
		{"strips nul", []byte("a\x00b"), "ab"},
		{"drops invalid bytes", []byte{'o', 'k', 0xc3}, "ok"},
		{"empty", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := decodeText(tc.in); got != tc.want {
				t.Errorf("decodeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
