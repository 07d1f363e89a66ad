// Package storage reads employee file descriptors from the storage
// service. A descriptor lists named sections, each with a directly
// fetchable document URL.
package storage

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/seed"
)

const DefaultDescriptorPath = "/api/employees/{id}/file"

//go:embed descriptor.schema.json
var descriptorSchema []byte

// Section is one named section of an employee file.
type Section struct {
	Title                string `json:"title"`
	URL                  string `json:"url,omitempty"`
	IncludeSeparatorPage bool   `json:"include_separator_page,omitempty"`
	OriginalName         string `json:"original_name,omitempty"`
	UploadedBy           string `json:"uploaded_by,omitempty"`
	CreatedAt            string `json:"created_at,omitempty"`
	UpdatedAt            string `json:"updated_at,omitempty"`
}

// Descriptor is the storage service's view of one employee file.
type Descriptor struct {
	EntityID string    `json:"entity_id"`
	Sections []Section `json:"sections"`
}

// SeedDescriptors returns every section as a static section descriptor.
func (d *Descriptor) SeedDescriptors() []seed.Descriptor {
	out := make([]seed.Descriptor, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = seed.Descriptor{Title: s.Title, URL: s.URL, IncludeSeparatorPage: s.IncludeSeparatorPage}
	}
	return out
}

// Entries returns the sections that have a document, as remote entries.
func (d *Descriptor) Entries() []remote.Entry {
	var out []remote.Entry
	for _, s := range d.Sections {
		if s.URL == "" {
			continue
		}
		out = append(out, remote.Entry{Title: s.Title, URL: s.URL, IncludeSeparatorPage: s.IncludeSeparatorPage})
	}
	return out
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	DescriptorPath string // "{id}" is replaced by the entity id (default: /api/employees/{id}/file)
	Fetcher        remote.Getter
	Logger         *slog.Logger
}

// Client reads descriptors from the storage service.
type Client struct {
	baseURL string
	path    string
	fetcher remote.Getter
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("storage base url is not configured")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := cfg.DescriptorPath
	if path == "" {
		path = DefaultDescriptorPath
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = remote.NewFetcher(remote.FetcherConfig{Logger: logger})
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		path:    path,
		fetcher: fetcher,
		schema:  schema,
		logger:  logger.With("component", "storage"),
	}, nil
}

// DescriptorURL returns the URL a descriptor is read from.
func (c *Client) DescriptorURL(entityID string) string {
	return c.baseURL + strings.ReplaceAll(c.path, "{id}", url.PathEscape(entityID))
}

// Descriptor fetches and validates the descriptor for entityID.
func (c *Client) Descriptor(ctx context.Context, entityID string) (*Descriptor, error) {
	if entityID == "" {
		return nil, errors.New("entity id is required")
	}

	raw, err := c.fetcher.Fetch(ctx, c.DescriptorURL(entityID))
	if err != nil {
		return nil, err
	}

	desc, err := c.Parse(raw)
	if err != nil {
		return nil, err
	}
	desc.EntityID = entityID

	c.logger.Debug("fetched descriptor", "entity_id", entityID, "sections", len(desc.Sections))
	return desc, nil
}

// Parse validates raw against the descriptor schema and decodes it.
func (c *Client) Parse(raw []byte) (*Descriptor, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("descriptor does not match schema: %w", err)
	}

	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	return &desc, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("descriptor.schema.json", bytes.NewReader(descriptorSchema)); err != nil {
		return nil, fmt.Errorf("failed to load descriptor schema: %w", err)
	}
	schema, err := compiler.Compile("descriptor.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile descriptor schema: %w", err)
	}
	return schema, nil
}
