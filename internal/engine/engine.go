// Package engine exposes the document assembly operations as one service.
//
// An Engine owns a document model and every component that reads or
// mutates it. All failures are returned to the caller and also raised as a
// Notice, so no operation fails silently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/extract"
	"github.com/jackzampolin/dossier/internal/pdf"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/reorder"
	"github.com/jackzampolin/dossier/internal/seed"
	"github.com/jackzampolin/dossier/internal/upload"
)

// Config configures an Engine.
type Config struct {
	// Rasterizer renders page thumbnails. Nil skips thumbnails.
	Rasterizer     pdf.Rasterizer
	ThumbnailScale float64
	JPEGQuality    int
	Workers        int

	// Fetcher retrieves remote documents for seeding and remote assembly.
	// Default: remote.NewFetcher with defaults.
	Fetcher remote.Getter

	Upload             upload.Config
	ActivationDistance float64

	// Notifier receives every notice in addition to the engine's inbox.
	// Default: LogNotifier.
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Engine is one independent assembly workspace.
type Engine struct {
	id      string
	created time.Time

	model     *document.Model
	extractor *extract.Extractor
	exporter  *export.Exporter
	packager  *upload.Packager
	assembler *remote.Assembler
	seeder    *seed.Initializer
	tracker   *reorder.Tracker

	inbox    *Inbox
	notifier Notifier
	logger   *slog.Logger
}

// New creates an Engine with an empty model.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = remote.NewFetcher(remote.FetcherConfig{Logger: logger})
	}
	uploadCfg := cfg.Upload
	if uploadCfg.Logger == nil {
		uploadCfg.Logger = logger
	}

	id := uuid.New().String()
	logger = logger.With("engine_id", id)

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	inbox := NewInbox(0)

	m := document.NewModel()
	extractor := extract.New(extract.Config{
		Model:          m,
		Rasterizer:     cfg.Rasterizer,
		ThumbnailScale: cfg.ThumbnailScale,
		JPEGQuality:    cfg.JPEGQuality,
		Workers:        cfg.Workers,
		Logger:         logger,
	})

	return &Engine{
		id:        id,
		created:   now(),
		model:     m,
		extractor: extractor,
		exporter:  export.New(export.Config{Logger: logger, Now: now}),
		packager:  upload.New(uploadCfg),
		assembler: remote.New(remote.Config{Fetcher: fetcher, Logger: logger}),
		seeder:    seed.New(seed.Config{Model: m, Loader: extractor, Fetcher: fetcher, Logger: logger}),
		tracker:   reorder.NewTracker(m, cfg.ActivationDistance),
		inbox:     inbox,
		notifier:  multiNotifier{inbox, notifier},
		logger:    logger,
	}
}

// ID returns the engine's identifier.
func (e *Engine) ID() string { return e.id }

// CreatedAt returns when the engine was created.
func (e *Engine) CreatedAt() time.Time { return e.created }

// Notices returns and clears notices raised since the last call.
func (e *Engine) Notices() []Notice { return e.inbox.Drain() }

// OnChange registers a listener called after every committed mutation.
func (e *Engine) OnChange(fn func(document.Change)) {
	e.model.OnChange(fn)
}

// Load extracts every page of data into groupID, or into a new section
// titled after name when groupID is empty.
func (e *Engine) Load(ctx context.Context, name string, data []byte, groupID string) (*extract.Result, error) {
	res, err := e.extractor.Load(ctx, name, data, groupID)
	if err != nil {
		e.fail("load", err)
		return nil, err
	}
	return res, nil
}

// AddSection appends an empty section.
func (e *Engine) AddSection(title string, includeSeparatorPage bool) document.Group {
	return e.model.AddSection(title, includeSeparatorPage)
}

// AddSeparator appends a divider group.
func (e *Engine) AddSeparator(title string) document.Group {
	return e.model.AddSeparator(title)
}

// DeleteGroup removes a group. Static sections are refused with a notice
// and the model is left unchanged.
func (e *Engine) DeleteGroup(groupID string) error {
	err := e.model.DeleteGroup(groupID)
	if errors.Is(err, document.ErrStaticGroup) {
		g, _ := e.model.Group(groupID)
		e.notify(LevelWarn, "delete group", fmt.Sprintf("Section %q is required and cannot be deleted", g.Title))
		return err
	}
	if err != nil {
		e.fail("delete group", err)
	}
	return err
}

// DeletePage removes one page.
func (e *Engine) DeletePage(groupID, pageID string) error {
	if err := e.model.DeletePage(groupID, pageID); err != nil {
		e.fail("delete page", err)
		return err
	}
	return nil
}

// ToggleSeparatorPage flips a section's divider flag and returns the new value.
func (e *Engine) ToggleSeparatorPage(groupID string) (bool, error) {
	v, err := e.model.ToggleSeparatorPage(groupID)
	if err != nil {
		e.fail("toggle divider", err)
	}
	return v, err
}

// SetExpanded sets a group's cosmetic expand/collapse flag.
func (e *Engine) SetExpanded(groupID string, expanded bool) error {
	if err := e.model.SetExpanded(groupID, expanded); err != nil {
		e.fail("expand group", err)
		return err
	}
	return nil
}

// MoveGroup moves the group at index from to index to.
func (e *Engine) MoveGroup(from, to int) error {
	if err := e.model.MoveGroup(from, to); err != nil {
		e.fail("reorder groups", err)
		return err
	}
	return nil
}

// MovePage moves a page within one group.
func (e *Engine) MovePage(groupID string, from, to int) error {
	if err := e.model.MovePage(groupID, from, to); err != nil {
		e.fail("reorder pages", err)
		return err
	}
	return nil
}

// DropGroup applies a completed group drag.
func (e *Engine) DropGroup(draggedID, targetID string) bool {
	return reorder.DropGroup(e.model, draggedID, targetID)
}

// DropPage applies a completed page drag within groupID.
func (e *Engine) DropPage(groupID, draggedID, targetID string) bool {
	return reorder.DropPage(e.model, groupID, draggedID, targetID)
}

// Tracker returns the engine's drag tracker.
func (e *Engine) Tracker() *reorder.Tracker { return e.tracker }

// Export assembles the whole model as it is now.
func (e *Engine) Export(ctx context.Context, opts export.Options) (*export.Artifact, error) {
	art, err := e.exporter.Export(ctx, e.model.Snapshot(), opts)
	if err != nil {
		e.fail("export", err)
		return nil, err
	}
	return art, nil
}

// Download exports the model and hands the document to saver.
func (e *Engine) Download(ctx context.Context, opts export.Options, saver export.Saver) (*export.Artifact, error) {
	art, err := e.exporter.Download(ctx, e.model.Snapshot(), opts, saver)
	if err != nil {
		e.fail("download", err)
		return nil, err
	}
	e.notify(LevelInfo, "download", fmt.Sprintf("Saved %s (%d pages)", art.FileName, art.PageCount))
	return art, nil
}

// ExportSections emits one document per non-empty section.
func (e *Engine) ExportSections(ctx context.Context) ([]*export.Artifact, error) {
	arts, err := e.exporter.ExportSections(ctx, e.model.Snapshot())
	if err != nil {
		e.fail("export sections", err)
		return nil, err
	}
	return arts, nil
}

// Upload submits one document per selected section. It never returns an
// error; failures are in the result.
func (e *Engine) Upload(ctx context.Context, filters upload.Filters, dest upload.Destination) upload.Result {
	res := e.packager.Upload(ctx, e.model.Snapshot(), filters, dest)
	if res.Err != nil {
		e.notify(LevelError, "upload", res.Err.Error())
	} else {
		e.notify(LevelInfo, "upload", fmt.Sprintf("Uploaded %d sections", len(res.Sections)))
	}
	return res
}

// Seed creates the static sections and loads their documents. Only the
// first call has any effect.
func (e *Engine) Seed(ctx context.Context, descs []seed.Descriptor) error {
	if err := e.seeder.Run(ctx, descs); err != nil {
		e.fail("seed", err)
		return err
	}
	return nil
}

// SeedState returns the static initializer's state.
func (e *Engine) SeedState() seed.State { return e.seeder.State() }

// Assemble merges remote sections without touching the model. Skipped
// sections raise a warning each.
func (e *Engine) Assemble(ctx context.Context, entries []remote.Entry, opts remote.Options) (*remote.Result, error) {
	res, err := e.assembler.Assemble(ctx, entries, opts)
	if err != nil {
		e.fail("assemble", err)
		return nil, err
	}
	for _, s := range res.Skipped {
		e.notify(LevelWarn, "assemble", fmt.Sprintf("Skipped %q: %s", s.Title, s.Reason))
	}
	return res, nil
}

// Groups returns every group in order.
func (e *Engine) Groups() []document.Group { return e.model.Groups() }

// Group returns one group.
func (e *Engine) Group(groupID string) (document.Group, bool) { return e.model.Group(groupID) }

// Page returns one page of a group.
func (e *Engine) Page(groupID, pageID string) (*document.Page, bool) {
	return e.model.Page(groupID, pageID)
}

// PageCount returns the number of pages in a group.
func (e *Engine) PageCount(groupID string) int { return e.model.PageCount(groupID) }

// TotalPages returns the number of source pages across all groups.
func (e *Engine) TotalPages() int { return e.model.TotalPages() }

// Snapshot returns a point-in-time copy of the model.
func (e *Engine) Snapshot() document.Snapshot { return e.model.Snapshot() }

func (e *Engine) notify(level Level, action, msg string) {
	e.notifier.Notify(Notice{Level: level, Action: action, Message: msg})
}

// fail raises an error notice with a message suited to the error type.
func (e *Engine) fail(action string, err error) {
	var (
		loadErr   *docerr.LoadError
		exportErr *docerr.ExportError
		fetchErr  *docerr.FetchError
	)
	msg := err.Error()
	switch {
	case errors.As(err, &loadErr):
		msg = fmt.Sprintf("Could not read %q: %v", loadErr.Source, loadErr.Err)
	case errors.As(err, &fetchErr):
		msg = fmt.Sprintf("Could not download %s: %s", fetchErr.URL, fetchErr.Error())
	case errors.Is(err, export.ErrNothingToExport):
		msg = "There are no pages to export"
	case errors.As(err, &exportErr):
		msg = fmt.Sprintf("Export failed: %v", exportErr.Err)
	}
	e.notify(LevelError, action, msg)
}
