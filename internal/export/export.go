// Package export walks a document snapshot and produces output documents.
//
// A full export is all-or-nothing: any failure returns a *docerr.ExportError
// and no artifact. Output order always equals snapshot order.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/pdf"
)

// ErrNothingToExport is returned when an export would produce zero pages.
var ErrNothingToExport = errors.New("nothing to export")

// Options controls a full export.
type Options struct {
	Cover      bool   `json:"cover"`
	CoverTitle string `json:"cover_title,omitempty"`
	FileName   string `json:"file_name,omitempty"` // defaults to DefaultFileName()
}

// ProvenanceKind says where an output page came from.
type ProvenanceKind string

const (
	KindCover   ProvenanceKind = "cover"
	KindDivider ProvenanceKind = "divider"
	KindPage    ProvenanceKind = "page"
)

// Provenance describes one output page.
type Provenance struct {
	Kind       ProvenanceKind `json:"kind"`
	Title      string         `json:"title,omitempty"` // cover and divider pages
	GroupID    string         `json:"group_id,omitempty"`
	PageID     string         `json:"page_id,omitempty"`
	SourceID   string         `json:"source_id,omitempty"`
	SourceName string         `json:"source_name,omitempty"`
	PageNumber int            `json:"page_number,omitempty"`
}

// Artifact is one serialized output document.
type Artifact struct {
	FileName  string       `json:"file_name"`
	Title     string       `json:"title,omitempty"` // per-section artifacts only
	GroupID   string       `json:"group_id,omitempty"`
	PageCount int          `json:"page_count"`
	Pages     []Provenance `json:"pages"`
	Data      []byte       `json:"-"`
}

// Config configures an Exporter.
type Config struct {
	Logger *slog.Logger
	Now    func() time.Time // for default file names (default: time.Now)
}

// Exporter produces output documents from snapshots.
type Exporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Exporter.
func New(cfg Config) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Exporter{
		logger: logger.With("component", "export"),
		now:    now,
	}
}

// DefaultFileName returns the date-stamped name used when none is given.
func (e *Exporter) DefaultFileName() string {
	return fmt.Sprintf("dossier-%s.pdf", e.now().Format("2006-01-02"))
}

// Export assembles the whole snapshot into one document.
func (e *Exporter) Export(ctx context.Context, snap document.Snapshot, opts Options) (*Artifact, error) {
	b := newBuilder(NewCache())

	if opts.Cover {
		if err := b.divider(KindCover, opts.CoverTitle, ""); err != nil {
			return nil, &docerr.ExportError{Op: "cover", Err: err}
		}
	}

	for _, g := range snap.Groups {
		if err := ctx.Err(); err != nil {
			return nil, &docerr.ExportError{Op: "assemble", Err: err}
		}
		switch g.Type {
		case document.TypeSeparator:
			if err := b.divider(KindDivider, g.Title, g.ID); err != nil {
				return nil, &docerr.ExportError{Op: "divider", Err: err}
			}
		case document.TypeSection:
			if err := b.section(g); err != nil {
				return nil, &docerr.ExportError{Op: "copy", Err: err}
			}
		}
	}

	if b.asm.PageCount() == 0 {
		return nil, &docerr.ExportError{Op: "assemble", Err: ErrNothingToExport}
	}

	data, err := b.asm.Bytes()
	if err != nil {
		return nil, &docerr.ExportError{Op: "serialize", Err: err}
	}

	name := opts.FileName
	if name == "" {
		name = e.DefaultFileName()
	}

	e.logger.Info("exported document",
		"file_name", name,
		"groups", len(snap.Groups),
		"pages", b.asm.PageCount(),
		"cover", opts.Cover,
	)

	return &Artifact{
		FileName:  name,
		PageCount: b.asm.PageCount(),
		Pages:     b.prov,
		Data:      data,
	}, nil
}

// Download exports the snapshot and hands the result to saver. Nothing is
// saved when the export fails.
func (e *Exporter) Download(ctx context.Context, snap document.Snapshot, opts Options, saver Saver) (*Artifact, error) {
	art, err := e.Export(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	if err := saver.Save(ctx, art.FileName, art.Data); err != nil {
		return nil, &docerr.ExportError{Op: "save", Err: err}
	}
	return art, nil
}

// ExportSections emits one standalone document per section that holds at
// least one page. Sources are shared across sections for the duration of
// the call.
func (e *Exporter) ExportSections(ctx context.Context, snap document.Snapshot) ([]*Artifact, error) {
	cache := NewCache()

	var out []*Artifact
	for _, g := range snap.Sections() {
		if len(g.Pages) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &docerr.ExportError{Op: "assemble", Err: err}
		}
		art, err := BuildSection(g, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, art)
	}

	e.logger.Info("exported sections", "sections", len(out))
	return out, nil
}

// BuildSection produces a standalone document for one section: its divider
// if enabled, then each page in order.
func BuildSection(g document.Group, cache *Cache) (*Artifact, error) {
	if !g.IsSection() {
		return nil, &docerr.ExportError{Op: "copy", Err: fmt.Errorf("%w: %q", document.ErrNotSection, g.Title)}
	}

	b := newBuilder(cache)
	if err := b.section(g); err != nil {
		return nil, &docerr.ExportError{Op: "copy", Err: err}
	}
	if b.asm.PageCount() == 0 {
		return nil, &docerr.ExportError{Op: "assemble", Err: ErrNothingToExport}
	}

	data, err := b.asm.Bytes()
	if err != nil {
		return nil, &docerr.ExportError{Op: "serialize", Err: err}
	}

	return &Artifact{
		FileName:  SectionFileName(g.Title),
		Title:     g.Title,
		GroupID:   g.ID,
		PageCount: b.asm.PageCount(),
		Pages:     b.prov,
		Data:      data,
	}, nil
}

// SectionFileName returns the file name for a section's document.
func SectionFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "section"
	}
	return name + ".pdf"
}

// builder accumulates output pages alongside their provenance.
type builder struct {
	asm   *pdf.Assembler
	cache *Cache
	prov  []Provenance
}

func newBuilder(cache *Cache) *builder {
	return &builder{asm: pdf.NewAssembler(), cache: cache}
}

func (b *builder) divider(kind ProvenanceKind, title, groupID string) error {
	if err := b.asm.AddTitlePage(title); err != nil {
		return err
	}
	b.prov = append(b.prov, Provenance{Kind: kind, Title: title, GroupID: groupID})
	return nil
}

func (b *builder) section(g document.Group) error {
	if g.IncludeSeparatorPage {
		if err := b.divider(KindDivider, g.Title, g.ID); err != nil {
			return err
		}
	}

	for _, p := range g.Pages {
		doc, err := b.cache.Open(p.Source)
		if err != nil {
			return err
		}
		if err := b.asm.AddPage(doc, p.Number); err != nil {
			return fmt.Errorf("failed to copy %s page %d: %w", p.SourceName, p.Number, err)
		}
		b.prov = append(b.prov, Provenance{
			Kind:       KindPage,
			GroupID:    g.ID,
			PageID:     p.ID,
			SourceID:   p.Source.ID,
			SourceName: p.SourceName,
			PageNumber: p.Number,
		})
	}
	return nil
}
