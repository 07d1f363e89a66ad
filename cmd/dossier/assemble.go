package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/config"
	"github.com/jackzampolin/dossier/internal/engine"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/manifest"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/storage"
)

var (
	assembleOutDir   string
	assembleSections bool
	remoteOutput     string
	remoteEmployeeID string
	uploadURL        string
)

// assembleResult is printed after an offline export.
type assembleResult struct {
	Path      string   `json:"path" yaml:"path"`
	PageCount int      `json:"page_count" yaml:"page_count"`
	Sections  []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <manifest.yaml>",
	Short: "Build a dossier offline from a manifest",
	Long: `Load the manifest's documents into sections and export them.

The whole file is written as one PDF named by the manifest's output (default
dossier-<date>.pdf). With --sections, each non-empty section is written as
its own PDF instead.

Example manifest:
  cover:
    title: Employee file
  output: jane-doe.pdf
  groups:
    - section: Contract
      include_separator_page: true
      files: [contract.pdf, addendum.pdf]
    - separator: Appendix
    - section: Certificates
      files: [certs/first-aid.pdf]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := cliLogger()

		cfg, m, err := loadManifest(args[0])
		if err != nil {
			return err
		}
		eng, err := newOfflineEngine(ctx, cfg, m, logger)
		if err != nil {
			return err
		}

		saver := export.DirSaver{Dir: assembleOutDir}
		if assembleSections {
			arts, err := eng.ExportSections(ctx)
			if err != nil {
				return err
			}
			var results []assembleResult
			for _, art := range arts {
				if err := saver.Save(ctx, art.FileName, art.Data); err != nil {
					return err
				}
				results = append(results, assembleResult{Path: saver.Path(art.FileName), PageCount: art.PageCount, Sections: []string{art.Title}})
			}
			return api.Output(results)
		}

		opts := m.ExportOptions()
		if opts.Cover && opts.CoverTitle == "" {
			opts.CoverTitle = cfg.Export.CoverTitle
		}
		art, err := eng.Download(ctx, opts, saver)
		if err != nil {
			return err
		}
		var titles []string
		for _, g := range eng.Snapshot().Sections() {
			titles = append(titles, g.Title)
		}
		return api.Output(assembleResult{Path: saver.Path(art.FileName), PageCount: art.PageCount, Sections: titles})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <manifest.yaml>",
	Short: "Upload a manifest's sections to the storage service",
	Long: `Load the manifest's documents and upload one PDF per section.

The destination comes from the manifest's upload.url, --url, or the
config's upload section. The tenant header is taken from upload.tenant_id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := cliLogger()

		cfg, m, err := loadManifest(args[0])
		if err != nil {
			return err
		}
		eng, err := newOfflineEngine(ctx, cfg, m, logger)
		if err != nil {
			return err
		}

		target := m.Upload.URL
		if uploadURL != "" {
			target = uploadURL
		}
		res := eng.Upload(ctx, m.Filters(), cfg.Destination(target))
		if err := api.Output(res); err != nil {
			return err
		}
		if res.Err != nil {
			return res.Err
		}
		return nil
	},
}

var remoteCmd = &cobra.Command{
	Use:   "remote [manifest.yaml]",
	Short: "Merge remote section documents into one PDF",
	Long: `Download the manifest's remote sections and merge them into one PDF.

With --employee-id the sections come from the storage service's descriptor
(storage.base_url) instead, and no manifest is needed. Sections that fail to
download are skipped and reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := cliLogger()

		var entries []remote.Entry
		var opts remote.Options
		var cfg *config.Config

		switch {
		case remoteEmployeeID != "":
			h, err := getHome()
			if err != nil {
				return err
			}
			mgr, err := loadConfig(h)
			if err != nil {
				return err
			}
			cfg = mgr.Get()
			fetcher := remote.NewFetcher(cfg.FetcherConfig(logger))
			st, err := storage.NewClient(cfg.StorageConfig(fetcher, logger))
			if err != nil {
				return err
			}
			desc, err := st.Descriptor(ctx, remoteEmployeeID)
			if err != nil {
				return err
			}
			entries = desc.Entries()
		case len(args) == 1:
			var m *manifest.Manifest
			var err error
			cfg, m, err = loadManifest(args[0])
			if err != nil {
				return err
			}
			entries = m.Remote
			opts = m.RemoteOptions()
		default:
			return errors.New("a manifest or --employee-id is required")
		}
		if len(entries) == 0 {
			return errors.New("no remote sections to assemble")
		}
		if opts.Cover && opts.CoverTitle == "" {
			opts.CoverTitle = cfg.Export.CoverTitle
		}

		eng := engine.New(cfg.EngineConfig(logger))
		res, err := eng.Assemble(ctx, entries, opts)
		if err != nil {
			return err
		}
		if res.Data == nil {
			_ = api.Output(res)
			return errors.New("no section could be assembled")
		}

		out := remoteOutput
		if out == "" {
			out = fmt.Sprintf("dossier-remote-%s.pdf", eng.CreatedAt().Format("2006-01-02"))
		}
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		logger.Info("assembled remote sections", "path", out, "pages", res.PageCount, "skipped", len(res.Skipped))
		return api.Output(res)
	},
}

// loadManifest reads the manifest and the configuration.
func loadManifest(path string) (*config.Config, *manifest.Manifest, error) {
	h, err := getHome()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return mgr.Get(), m, nil
}

// newOfflineEngine builds an engine and applies the manifest to it.
// Thumbnails are never needed offline.
func newOfflineEngine(ctx context.Context, cfg *config.Config, m *manifest.Manifest, logger *slog.Logger) (*engine.Engine, error) {
	ecfg := cfg.EngineConfig(logger)
	ecfg.Rasterizer = nil
	eng := engine.New(ecfg)
	if err := m.Apply(ctx, eng); err != nil {
		return nil, err
	}
	logger.Debug("manifest applied", "groups", len(eng.Groups()), "pages", eng.TotalPages())
	return eng, nil
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleOutDir, "dir", "d", ".", "Directory to write into")
	assembleCmd.Flags().BoolVar(&assembleSections, "sections", false, "Write one PDF per section")

	uploadCmd.Flags().StringVar(&uploadURL, "url", "", "Upload destination (overrides the manifest and config)")

	remoteCmd.Flags().StringVarP(&remoteOutput, "file", "f", "", "Output file (default: dossier-remote-<date>.pdf)")
	remoteCmd.Flags().StringVar(&remoteEmployeeID, "employee-id", "", "Assemble this employee's stored sections")

	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(remoteCmd)
}
