// Package extractor turns PDF files into plain text.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction indicates the file could not be read or parsed as a PDF.
var ErrExtraction = errors.New("extractor: cannot extract text from pdf")

// Extract reads the PDF at path and returns the text of every page in page
// order, joined by a newline. Pages with no extractable text (scanned or
// image-only pages) contribute an empty string rather than an error, so an
// image-only PDF yields a near-empty document.
func Extract(path string) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}
