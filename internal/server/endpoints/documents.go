package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
)

// DefaultMaxUploadBytes caps a document upload when no limit is configured.
const DefaultMaxUploadBytes = 64 << 20

// LoadResponse is the response for a document load.
type LoadResponse struct {
	GroupID string     `json:"group_id"`
	Created bool       `json:"created"`
	Pages   []PageView `json:"pages"`
}

// LoadDocumentEndpoint handles POST /api/sessions/{id}/documents.
type LoadDocumentEndpoint struct {
	// MaxBytes caps the request body.
	MaxBytes int64
}

var _ api.Endpoint = (*LoadDocumentEndpoint)(nil)

func (e *LoadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/documents", e.handler
}

func (e *LoadDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Load a document
//	@Description	Split a PDF into pages and append them to a section, or to a new section named after the file
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			id			path		string	true	"Session ID"
//	@Param			file		formData	file	true	"PDF document"
//	@Param			group_id	formData	string	false	"Existing section to append to"
//	@Success		201			{object}	LoadResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/api/sessions/{id}/documents [post]
func (e *LoadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	maxBytes := e.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err))
		return
	}

	res, err := eng.Load(r.Context(), fh.Filename, data, r.FormValue("group_id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := LoadResponse{
		GroupID: res.GroupID,
		Created: res.Created,
		Pages:   make([]PageView, 0, len(res.Pages)),
	}
	if g, ok := eng.Group(res.GroupID); ok {
		added := make(map[string]bool, len(res.Pages))
		for _, p := range res.Pages {
			added[p.ID] = true
		}
		for _, pv := range newGroupView(eng.ID(), g).Pages {
			if added[pv.ID] {
				resp.Pages = append(resp.Pages, pv)
			}
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (e *LoadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var groupID string
	cmd := &cobra.Command{
		Use:   "load <session> <file.pdf>",
		Short: "Load a PDF into a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			fields := map[string]string{}
			if groupID != "" {
				fields["group_id"] = groupID
			}
			client := api.NewClient(getServerURL())
			var resp LoadResponse
			if err := client.PostFile(cmd.Context(), sessionPath(args[0])+"/documents", "file", filepath.Base(args[1]), data, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "Append to this section instead of creating one")
	return cmd
}
