package export

import (
	"fmt"

	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/pdf"
)

// Cache holds parsed sources for the duration of one call, keyed by content
// digest so identical bytes loaded into different groups are parsed once.
// It is not safe for concurrent use.
type Cache struct {
	docs   map[string]*pdf.Document
	parses int
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{docs: make(map[string]*pdf.Document)}
}

// Open returns the parsed document for src, parsing it on first use.
func (c *Cache) Open(src *document.Source) (*pdf.Document, error) {
	if src == nil {
		return nil, fmt.Errorf("page has no source")
	}
	if doc, ok := c.docs[src.Digest]; ok {
		return doc, nil
	}

	doc, err := pdf.Open(src.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %q: %w", src.Name, err)
	}
	c.docs[src.Digest] = doc
	c.parses++
	return doc, nil
}

// Parses returns how many sources were parsed.
func (c *Cache) Parses() int {
	return c.parses
}
