// Package seed pre-populates a document model with static sections
// described by the storage service.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sync"

	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/extract"
	"github.com/jackzampolin/dossier/internal/remote"
)

// State is the initializer's lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateSeeding       State = "seeding"
	StateReady         State = "ready"
)

// Descriptor describes one static section.
type Descriptor struct {
	Title                string `json:"title" yaml:"title"`
	URL                  string `json:"url,omitempty" yaml:"url,omitempty"`
	IncludeSeparatorPage bool   `json:"include_separator_page,omitempty" yaml:"include_separator_page,omitempty"`
}

// Loader loads document bytes into a group.
type Loader interface {
	Load(ctx context.Context, name string, data []byte, groupID string) (*extract.Result, error)
}

// Config configures an Initializer.
type Config struct {
	Model   *document.Model
	Loader  Loader
	Fetcher remote.Getter
	Logger  *slog.Logger
}

// Initializer seeds a model exactly once.
type Initializer struct {
	model   *document.Model
	loader  Loader
	fetcher remote.Getter
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an Initializer in StateUninitialized.
func New(cfg Config) *Initializer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{
		model:   cfg.Model,
		loader:  cfg.Loader,
		fetcher: cfg.Fetcher,
		logger:  logger.With("component", "seed"),
		state:   StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (i *Initializer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Run creates one static section per descriptor, in order, then loads each
// descriptor's URL into its section one at a time. Calls after the first
// return nil immediately. A fetch or load failure ends the run with an
// error; sections already created stay in the model and the initializer
// still becomes ready.
func (i *Initializer) Run(ctx context.Context, descs []Descriptor) error {
	i.mu.Lock()
	if i.state != StateUninitialized {
		i.mu.Unlock()
		i.logger.Debug("seed already run", "state", i.state)
		return nil
	}
	i.state = StateSeeding
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.state = StateReady
		i.mu.Unlock()
	}()

	groups := make([]document.Group, len(descs))
	for n, d := range descs {
		groups[n] = i.model.AddStaticSection(d.Title, d.IncludeSeparatorPage)
	}
	i.logger.Info("seeded static sections", "sections", len(groups))

	for n, d := range descs {
		if d.URL == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := i.fetcher.Fetch(ctx, d.URL)
		if err != nil {
			return fmt.Errorf("failed to fetch section %q: %w", d.Title, err)
		}
		res, err := i.loader.Load(ctx, SourceName(d), data, groups[n].ID)
		if err != nil {
			return fmt.Errorf("failed to load section %q: %w", d.Title, err)
		}
		i.logger.Info("loaded static section", "title", d.Title, "pages", len(res.Pages))
	}
	return nil
}

// SourceName derives a display name for a descriptor's document from the
// last element of its URL path.
func SourceName(d Descriptor) string {
	u, err := url.Parse(d.URL)
	if err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return d.Title + ".pdf"
}
