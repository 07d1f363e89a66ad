// Package pdf wraps the PDF primitives the engine needs: opening source
// documents, copying single pages, generating title and blank pages, merging
// parts into one document and rasterizing page thumbnails.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoPages is returned when a document opens but contains no pages.
var ErrNoPages = errors.New("document has no pages")

// newConfiguration returns a fresh pdfcpu configuration.
// pdfcpu mutates the configuration during merges, so it is never shared.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document is a parsed source document.
// It is not safe for concurrent use.
type Document struct {
	ctx  *model.Context
	data []byte
}

// Open parses data as a PDF document.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	return &Document{ctx: ctx, data: data}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Bytes returns the raw bytes the document was opened from.
func (d *Document) Bytes() []byte {
	return d.data
}

// Page returns page n (1-indexed) as a standalone single-page PDF.
func (d *Document) Page(n int) ([]byte, error) {
	if n < 1 || n > d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range (1-%d)", n, d.ctx.PageCount)
	}

	r, err := api.ExtractPage(d.ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page %d: %w", n, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", n, err)
	}
	return data, nil
}

// PageCount returns the number of pages in a serialized PDF.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
