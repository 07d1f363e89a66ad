// Package extract turns source document bytes into page records and commits
// them to a document model.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/pdf"
)

const (
	DefaultThumbnailScale = 0.3
	DefaultJPEGQuality    = 75
)

// Config configures an Extractor.
type Config struct {
	Model *document.Model

	// Rasterizer renders page previews. When nil, pages are extracted
	// without thumbnails.
	Rasterizer pdf.Rasterizer

	ThumbnailScale float64 // fraction of native size (default: 0.3)
	JPEGQuality    int     // thumbnail quality 1-100 (default: 75)
	Workers        int     // concurrent page renders (default: runtime.NumCPU())
	Logger         *slog.Logger
}

// Extractor loads source documents into a model.
type Extractor struct {
	model   *document.Model
	raster  pdf.Rasterizer
	scale   float64
	quality int
	workers int
	logger  *slog.Logger
}

// Result describes a committed load.
type Result struct {
	GroupID string           `json:"group_id"`
	Created bool             `json:"created"` // a new section was created for the source
	Pages   []*document.Page `json:"-"`
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scale := cfg.ThumbnailScale
	if scale <= 0 {
		scale = DefaultThumbnailScale
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Extractor{
		model:   cfg.Model,
		raster:  cfg.Rasterizer,
		scale:   scale,
		quality: quality,
		workers: workers,
		logger:  logger.With("component", "extract"),
	}
}

// Load extracts every page of data and commits them. With a groupID the
// pages are appended to that section; otherwise a new section titled after
// name is created. If the document cannot be opened or any page fails to
// render, nothing is committed and a *docerr.LoadError is returned.
func (e *Extractor) Load(ctx context.Context, name string, data []byte, groupID string) (*Result, error) {
	if groupID != "" {
		g, ok := e.model.Group(groupID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", document.ErrGroupNotFound, groupID)
		}
		if !g.IsSection() {
			return nil, fmt.Errorf("%w: %q", document.ErrNotSection, g.Title)
		}
	}

	doc, err := pdf.Open(data)
	if err != nil {
		return nil, &docerr.LoadError{Source: name, Err: err}
	}

	src := document.NewSource(name, data)
	n := doc.PageCount()
	pages := make([]*document.Page, n)
	for i := range pages {
		pages[i] = document.NewPage(src, i+1)
	}

	if e.raster != nil {
		if err := e.renderThumbnails(ctx, data, pages); err != nil {
			return nil, &docerr.LoadError{Source: name, Err: err}
		}
	}

	result := &Result{Pages: pages}
	if groupID != "" {
		if err := e.model.AppendPages(groupID, pages); err != nil {
			return nil, err
		}
		result.GroupID = groupID
	} else {
		g, err := e.model.AddSectionWithPages(Title(name), pages)
		if err != nil {
			return nil, err
		}
		result.GroupID = g.ID
		result.Created = true
	}

	e.logger.Info("loaded document",
		"source", name,
		"pages", n,
		"group_id", result.GroupID,
		"new_group", result.Created,
	)
	return result, nil
}

// renderThumbnails renders pages concurrently. Results land at their page's
// index, so order does not depend on completion order.
func (e *Extractor) renderThumbnails(ctx context.Context, data []byte, pages []*document.Page) error {
	return pdf.WithTempFile(data, func(path string) error {
		type result struct {
			index int
			err   error
		}

		results := make(chan result, len(pages))
		sem := make(chan struct{}, e.workers)

		for i := range pages {
			sem <- struct{}{} // acquire
			go func(i int) {
				defer func() { <-sem }() // release
				results <- result{index: i, err: e.renderPage(ctx, path, pages[i])}
			}(i)
		}

		var firstErr error
		for range pages {
			r := <-results
			if r.err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to render page %d: %w", r.index+1, r.err)
			}
		}
		return firstErr
	})
}

func (e *Extractor) renderPage(ctx context.Context, path string, page *document.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := e.raster.Rasterize(ctx, path, page.Number)
	if err != nil {
		return err
	}
	thumb, err := pdf.Thumbnail(img, e.scale, e.quality)
	if err != nil {
		return err
	}
	page.Thumbnail = thumb
	page.ThumbnailType = pdf.ThumbnailType
	return nil
}

// Title derives a section title from a source file name.
// e.g., "contract-2024.pdf" -> "contract-2024"
func Title(name string) string {
	base := filepath.Base(name)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" || title == "." {
		return name
	}
	return title
}
