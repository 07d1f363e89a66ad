package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/config"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/svcctx"
)

// SavedArtifact is an exported document written to the server's export
// directory.
type SavedArtifact struct {
	*export.Artifact
	Path string `json:"path"`
}

// ExportSectionsResponse is the response for a per-section export.
type ExportSectionsResponse struct {
	Artifacts []SavedArtifact `json:"artifacts"`
}

// ExportEndpoint handles POST /api/sessions/{id}/export.
type ExportEndpoint struct{}

var _ api.Endpoint = (*ExportEndpoint)(nil)

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/export", e.handler
}

func (e *ExportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export the session
//	@Description	Merge every group, in order, into one PDF returned as an attachment
//	@Tags			export
//	@Accept			json
//	@Produce		application/pdf
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		export.Options	false	"Export options"
//	@Success		200		{file}		binary
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/export [post]
func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var opts export.Options
	if !decodeJSON(w, r, &opts) {
		return
	}
	if opts.Cover && opts.CoverTitle == "" {
		opts.CoverTitle = defaultCoverTitle(r.Context())
	}

	art, err := eng.Export(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writePDF(w, art.FileName, art.Data, art.PageCount)
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var opts export.Options
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Download the session as one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return downloadTo(cmd.Context(), client, sessionPath(args[0])+"/export", opts, outPath)
		},
	}
	cmd.Flags().BoolVar(&opts.Cover, "cover", false, "Prepend a cover page")
	cmd.Flags().StringVar(&opts.CoverTitle, "cover-title", "", "Cover page title (default from config)")
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "Output file (default: name chosen by the server)")
	return cmd
}

// SaveExportEndpoint handles POST /api/sessions/{id}/export/save.
type SaveExportEndpoint struct{}

func (e *SaveExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/export/save", e.handler
}

func (e *SaveExportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export the session to the server's export directory
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		export.Options	false	"Export options"
//	@Success		200		{object}	SavedArtifact
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/export/save [post]
func (e *SaveExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var opts export.Options
	if !decodeJSON(w, r, &opts) {
		return
	}
	if opts.Cover && opts.CoverTitle == "" {
		opts.CoverTitle = defaultCoverTitle(r.Context())
	}

	saver := export.DirSaver{Dir: exportDir(r.Context())}
	art, err := eng.Download(r.Context(), opts, saver)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SavedArtifact{Artifact: art, Path: saver.Path(art.FileName)})
}

func (e *SaveExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var opts export.Options
	cmd := &cobra.Command{
		Use:   "save <session>",
		Short: "Export the session into the server's export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SavedArtifact
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/export/save", opts, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&opts.Cover, "cover", false, "Prepend a cover page")
	cmd.Flags().StringVar(&opts.CoverTitle, "cover-title", "", "Cover page title (default from config)")
	cmd.Flags().StringVar(&opts.FileName, "name", "", "File name (default: dossier-<date>.pdf)")
	return cmd
}

// ExportSectionsEndpoint handles POST /api/sessions/{id}/export/sections.
type ExportSectionsEndpoint struct{}

func (e *ExportSectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/export/sections", e.handler
}

func (e *ExportSectionsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export each section separately
//	@Description	Write one PDF per non-empty section into the server's export directory
//	@Tags			export
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	ExportSectionsResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/export/sections [post]
func (e *ExportSectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	arts, err := eng.ExportSections(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	saver := export.DirSaver{Dir: filepath.Join(exportDir(r.Context()), eng.ID())}
	resp := ExportSectionsResponse{Artifacts: make([]SavedArtifact, 0, len(arts))}
	for _, art := range arts {
		if err := saver.Save(r.Context(), art.FileName, art.Data); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Artifacts = append(resp.Artifacts, SavedArtifact{Artifact: art, Path: saver.Path(art.FileName)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ExportSectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <session>",
		Short: "Export each non-empty section as its own PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExportSectionsResponse
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/export/sections", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// defaultCoverTitle returns the configured cover title.
func defaultCoverTitle(ctx context.Context) string {
	if mgr := svcctx.ConfigFrom(ctx); mgr != nil {
		return mgr.Get().Export.CoverTitle
	}
	return config.DefaultConfig().Export.CoverTitle
}

// exportDir returns the configured export directory, falling back to the
// home directory's exports folder.
func exportDir(ctx context.Context) string {
	if mgr := svcctx.ConfigFrom(ctx); mgr != nil {
		if dir := mgr.Get().Export.Dir; dir != "" {
			return dir
		}
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		return h.ExportsDir()
	}
	return os.TempDir()
}

// writePDF writes a PDF attachment.
func writePDF(w http.ResponseWriter, name string, data []byte, pages int) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Page-Count", strconv.Itoa(pages))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// downloadTo fetches a PDF and writes it to outPath, or to the server's
// suggested name in the working directory.
func downloadTo(ctx context.Context, client *api.Client, path string, body any, outPath string) error {
	tmp, err := os.CreateTemp(".", ".dossier-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	name, err := client.Download(ctx, path, body, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = filepath.Base(name)
		if name == "" {
			outPath = "dossier.pdf"
		}
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("failed to save %s: %w", outPath, err)
	}
	fmt.Printf("Saved %s\n", outPath)
	return nil
}
