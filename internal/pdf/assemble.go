package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrEmptyAssembly is returned when Bytes is called before any page was added.
var ErrEmptyAssembly = errors.New("no pages to assemble")

// Assembler accumulates pages in order and merges them into one document.
type Assembler struct {
	parts [][]byte
	pages int
}

// NewAssembler creates an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// AddTitlePage appends a generated page with title centered on it.
func (a *Assembler) AddTitlePage(title string) error {
	data, err := TitlePage(title)
	if err != nil {
		return err
	}
	a.add(data, 1)
	return nil
}

// AddBlankPage appends an empty page.
func (a *Assembler) AddBlankPage() error {
	data, err := BlankPage()
	if err != nil {
		return err
	}
	a.add(data, 1)
	return nil
}

// AddPage copies page n (1-indexed) of doc.
func (a *Assembler) AddPage(doc *Document, n int) error {
	data, err := doc.Page(n)
	if err != nil {
		return err
	}
	a.add(data, 1)
	return nil
}

// AddDocument appends every page of doc.
func (a *Assembler) AddDocument(doc *Document) {
	a.add(doc.Bytes(), doc.PageCount())
}

// PageCount returns the number of pages added so far.
func (a *Assembler) PageCount() int {
	return a.pages
}

// Bytes merges all parts into a single PDF.
func (a *Assembler) Bytes() ([]byte, error) {
	switch len(a.parts) {
	case 0:
		return nil, ErrEmptyAssembly
	case 1:
		return a.parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(a.parts))
	for i, p := range a.parts {
		readers[i] = bytes.NewReader(p)
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge %d parts: %w", len(a.parts), err)
	}
	return buf.Bytes(), nil
}

func (a *Assembler) add(data []byte, pages int) {
	a.parts = append(a.parts, data)
	a.pages += pages
}
