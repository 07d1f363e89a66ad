package endpoints

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/svcctx"
	"github.com/jackzampolin/dossier/internal/upload"
)

// UploadRequest is the body for POST /api/sessions/{id}/upload.
type UploadRequest struct {
	// URL overrides the configured upload destination.
	URL string `json:"url,omitempty"`
	upload.Filters
}

// UploadEndpoint handles POST /api/sessions/{id}/upload.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload sections
//	@Description	Post one PDF per selected section to the configured destination in a single multipart request
//	@Tags			upload
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		UploadRequest	false	"Destination override and filters"
//	@Success		200		{object}	upload.Result
//	@Failure		400		{object}	upload.Result
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	upload.Result
//	@Failure		502		{object}	upload.Result
//	@Router			/api/sessions/{id}/upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res := eng.Upload(r.Context(), req.Filters, destination(r.Context(), req.URL))
	writeJSON(w, uploadStatus(res), res)
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req UploadRequest
	cmd := &cobra.Command{
		Use:   "upload <session>",
		Short: "Upload the session's sections to the HR system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp upload.Result
			err := client.Post(cmd.Context(), sessionPath(args[0])+"/upload", req, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.URL, "url", "", "Destination URL (default from config)")
	cmd.Flags().BoolVar(&req.StaticOnly, "static-only", false, "Only upload static sections")
	cmd.Flags().BoolVar(&req.NonEmptyOnly, "non-empty-only", false, "Skip sections without pages")
	return cmd
}

// destination resolves the upload destination from config. A non-empty
// url overrides the configured one.
func destination(ctx context.Context, url string) upload.Destination {
	if mgr := svcctx.ConfigFrom(ctx); mgr != nil {
		return mgr.Get().Destination(url)
	}
	return upload.Destination{URL: url, Headers: map[string]string{}}
}

func uploadStatus(res upload.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	switch res.Err.Kind {
	case docerr.UploadKindConfig:
		return http.StatusBadRequest
	case docerr.UploadKindPackage:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
