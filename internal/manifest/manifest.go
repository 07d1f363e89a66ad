// Package manifest reads YAML files describing a document to assemble
// offline, without a running server.
//
//	cover:
//	  title: Employee file
//	output: dossier.pdf
//	groups:
//	  - section: Contract
//	    include_separator_page: true
//	    files: [contract.pdf, addendum.pdf]
//	  - separator: Appendix
//	  - section: Certificates
//	    files: [certs/first-aid.pdf]
//	remote:
//	  - title: ID Card
//	    url: https://cdn.example.com/42/id.pdf
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/dossier/internal/engine"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/upload"
)

// Cover requests a leading title page.
type Cover struct {
	Title string `yaml:"title"`
}

// Group is one section or separator.
type Group struct {
	Section              string   `yaml:"section,omitempty"`
	Separator            string   `yaml:"separator,omitempty"`
	IncludeSeparatorPage bool     `yaml:"include_separator_page,omitempty"`
	Files                []string `yaml:"files,omitempty"`
}

// Upload holds upload filters and an optional destination override.
type Upload struct {
	URL          string `yaml:"url,omitempty"`
	StaticOnly   bool   `yaml:"static_only,omitempty"`
	NonEmptyOnly bool   `yaml:"non_empty_only,omitempty"`
}

// Manifest describes a document.
type Manifest struct {
	Cover  *Cover         `yaml:"cover,omitempty"`
	Output string         `yaml:"output,omitempty"`
	Groups []Group        `yaml:"groups"`
	Remote []remote.Entry `yaml:"remote,omitempty"`
	Upload Upload         `yaml:"upload,omitempty"`

	dir string
}

// Load reads and validates a manifest. Relative file paths are resolved
// against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every group is exactly one of section or separator.
func (m *Manifest) Validate() error {
	var errs []error
	for i, g := range m.Groups {
		switch {
		case g.Section == "" && g.Separator == "":
			errs = append(errs, fmt.Errorf("group %d: one of section or separator is required", i+1))
		case g.Section != "" && g.Separator != "":
			errs = append(errs, fmt.Errorf("group %d: section and separator are exclusive", i+1))
		case g.Separator != "" && len(g.Files) > 0:
			errs = append(errs, fmt.Errorf("group %d: separator %q cannot hold files", i+1, g.Separator))
		}
	}
	for i, r := range m.Remote {
		if r.URL == "" {
			errs = append(errs, fmt.Errorf("remote %d: url is required", i+1))
		}
	}
	return errors.Join(errs...)
}

// Path resolves a file path from the manifest.
func (m *Manifest) Path(file string) string {
	if filepath.IsAbs(file) || m.dir == "" {
		return file
	}
	return filepath.Join(m.dir, file)
}

// ExportOptions returns the export options the manifest asks for.
func (m *Manifest) ExportOptions() export.Options {
	opts := export.Options{FileName: m.Output}
	if m.Cover != nil {
		opts.Cover = true
		opts.CoverTitle = m.Cover.Title
	}
	return opts
}

// RemoteOptions returns the remote assembly options the manifest asks for.
func (m *Manifest) RemoteOptions() remote.Options {
	if m.Cover == nil {
		return remote.Options{}
	}
	return remote.Options{Cover: true, CoverTitle: m.Cover.Title}
}

// Filters returns the upload filters.
func (m *Manifest) Filters() upload.Filters {
	return upload.Filters{StaticOnly: m.Upload.StaticOnly, NonEmptyOnly: m.Upload.NonEmptyOnly}
}

// Apply builds the manifest's groups in e, loading files in order.
func (m *Manifest) Apply(ctx context.Context, e *engine.Engine) error {
	for _, g := range m.Groups {
		if g.Separator != "" {
			e.AddSeparator(g.Separator)
			continue
		}

		section := e.AddSection(g.Section, g.IncludeSeparatorPage)
		for _, f := range g.Files {
			path := m.Path(f)
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			if _, err := e.Load(ctx, filepath.Base(path), data, section.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
