// Package remote assembles a composite document directly from per-section
// URLs, independent of any live document model.
//
// Assembly is best-effort: a section that cannot be fetched or read is
// logged and skipped, and the rest are still assembled. Only a failure
// building the output itself aborts the call.
package remote

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/pdf"
)

// Entry is one remote section.
type Entry struct {
	Title                string `json:"title" yaml:"title"`
	URL                  string `json:"url" yaml:"url"`
	IncludeSeparatorPage bool   `json:"include_separator_page,omitempty" yaml:"include_separator_page,omitempty"`
}

// Options controls assembly.
type Options struct {
	Cover      bool   `json:"cover"`
	CoverTitle string `json:"cover_title,omitempty"`
}

// Skip records a section left out of the output.
type Skip struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Result is the assembled document.
type Result struct {
	PageCount int      `json:"page_count"`
	Included  []string `json:"included"`
	Skipped   []Skip   `json:"skipped,omitempty"`
	Data      []byte   `json:"-"` // nil when no section was assembled
}

// Config configures an Assembler.
type Config struct {
	Fetcher Getter // default: NewFetcher with defaults
	Logger  *slog.Logger
}

// Assembler merges remote sections.
type Assembler struct {
	fetcher Getter
	logger  *slog.Logger
}

// New creates an Assembler.
func New(cfg Config) *Assembler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(FetcherConfig{Logger: logger})
	}
	return &Assembler{
		fetcher: fetcher,
		logger:  logger.With("component", "remote"),
	}
}

// Assemble fetches each entry in order and merges those that succeed.
func (a *Assembler) Assemble(ctx context.Context, entries []Entry, opts Options) (*Result, error) {
	asm := pdf.NewAssembler()
	result := &Result{Included: []string{}}

	if opts.Cover {
		if err := asm.AddTitlePage(opts.CoverTitle); err != nil {
			return nil, &docerr.ExportError{Op: "cover", Err: err}
		}
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &docerr.ExportError{Op: "assemble", Err: err}
		}

		data, err := a.fetcher.Fetch(ctx, e.URL)
		if err != nil {
			a.skip(result, e, err)
			continue
		}
		doc, err := pdf.Open(data)
		if err != nil {
			a.skip(result, e, &docerr.LoadError{Source: e.URL, Err: err})
			continue
		}

		if e.IncludeSeparatorPage {
			if err := asm.AddTitlePage(e.Title); err != nil {
				return nil, &docerr.ExportError{Op: "divider", Err: err}
			}
		}
		asm.AddDocument(doc)
		result.Included = append(result.Included, e.Title)
	}

	if len(result.Included) == 0 {
		a.logger.Warn("no remote sections assembled", "entries", len(entries), "skipped", len(result.Skipped))
		return result, nil
	}

	data, err := asm.Bytes()
	if err != nil {
		return nil, &docerr.ExportError{Op: "serialize", Err: err}
	}
	result.Data = data
	result.PageCount = asm.PageCount()

	a.logger.Info("assembled remote sections",
		"included", len(result.Included),
		"skipped", len(result.Skipped),
		"pages", result.PageCount,
	)
	return result, nil
}

func (a *Assembler) skip(result *Result, e Entry, err error) {
	a.logger.Warn("skipping remote section", "title", e.Title, "url", e.URL, "error", err)
	result.Skipped = append(result.Skipped, Skip{Title: e.Title, URL: e.URL, Reason: err.Error()})
}
