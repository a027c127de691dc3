package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Page is one unit of extracted document text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages extracts per-page text from a PDF payload. Payloads the PDF
// reader cannot open are treated as plain text and returned as a single
// page 1 after a lossy UTF-8 decode. ExtractPages never fails: a page whose
// text cannot be extracted is returned with empty text so page numbering
// stays aligned with the source document.
func ExtractPages(data []byte) []Page {
	pages, err := extractPDFPages(data)
	if err != nil {
		return []Page{{Number: 1, Text: decodeText(data)}}
	}
	return pages
}

func extractPDFPages(data []byte) (pages []Page, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingest: pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ingest: open pdf: %w", err)
	}

	n := reader.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, Page{Number: i, Text: pageText(reader, i)})
	}
	return pages, nil
}

// pageText extracts the plain text of a single page, absorbing per-page
// extraction failures as empty text.
func pageText(r *pdf.Reader, pageNo int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := r.Page(pageNo)
	if page.V.IsNull() {
		return ""
	}
	txt, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return txt
}

// decodeText decodes arbitrary bytes as UTF-8, dropping invalid sequences
// and NUL runes rather than substituting replacement characters.
func decodeText(data []byte) string {
	if utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			data = data[1:]
			continue
		}
		if r != 0 {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}
