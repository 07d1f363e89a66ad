package endpoints

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/svcctx"
)

// AssembleRequest is the body for POST /api/sessions/{id}/assemble.
type AssembleRequest struct {
	// Entries are fetched in order. When empty, the sections of
	// EmployeeID's storage descriptor that have a URL are used.
	Entries    []remote.Entry `json:"entries,omitempty"`
	EmployeeID string         `json:"employee_id,omitempty"`
	remote.Options
}

// AssembleFailure is returned when no section could be assembled.
type AssembleFailure struct {
	Error   string        `json:"error"`
	Skipped []remote.Skip `json:"skipped"`
}

// AssembleEndpoint handles POST /api/sessions/{id}/assemble.
type AssembleEndpoint struct{}

var _ api.Endpoint = (*AssembleEndpoint)(nil)

func (e *AssembleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/assemble", e.handler
}

func (e *AssembleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Assemble remote sections
//	@Description	Fetch each section's document and merge those that succeed into one PDF. Failed sections are skipped and raise a notice.
//	@Tags			export
//	@Accept			json
//	@Produce		application/pdf
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		AssembleRequest	true	"Sections to assemble"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	AssembleFailure
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/assemble [post]
func (e *AssembleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req AssembleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Cover && req.CoverTitle == "" {
		req.CoverTitle = defaultCoverTitle(r.Context())
	}

	entries := req.Entries
	if len(entries) == 0 && req.EmployeeID != "" {
		st := svcctx.StorageFrom(r.Context())
		if st == nil {
			writeError(w, http.StatusBadRequest, "storage is not configured; set storage.base_url")
			return
		}
		desc, err := st.Descriptor(r.Context(), req.EmployeeID)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		entries = desc.Entries()
	}
	if len(entries) == 0 {
		writeError(w, http.StatusBadRequest, "no sections to assemble")
		return
	}

	res, err := eng.Assemble(r.Context(), entries, req.Options)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if res.Data == nil {
		writeJSON(w, http.StatusUnprocessableEntity, AssembleFailure{
			Error:   "no section could be assembled",
			Skipped: res.Skipped,
		})
		return
	}

	w.Header().Set("X-Skipped-Sections", strconv.Itoa(len(res.Skipped)))
	name := fmt.Sprintf("dossier-remote-%s.pdf", time.Now().Format("2006-01-02"))
	writePDF(w, name, res.Data, res.PageCount)
}

func (e *AssembleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req AssembleRequest
	var outPath string
	cmd := &cobra.Command{
		Use:   "assemble <session> [title=url ...]",
		Short: "Merge remote section documents into one PDF",
		Long: `Fetch remote section documents and merge them into one PDF.

Sections are given as title=url pairs, or taken from an employee's
storage descriptor with --employee-id. Sections that fail to download are
skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args[1:] {
				entry, err := parseEntry(arg)
				if err != nil {
					return err
				}
				req.Entries = append(req.Entries, entry)
			}
			client := api.NewClient(getServerURL())
			return downloadTo(cmd.Context(), client, sessionPath(args[0])+"/assemble", req, outPath)
		},
	}
	cmd.Flags().StringVar(&req.EmployeeID, "employee-id", "", "Use this employee's storage descriptor")
	cmd.Flags().BoolVar(&req.Cover, "cover", false, "Prepend a cover page")
	cmd.Flags().StringVar(&req.CoverTitle, "cover-title", "", "Cover page title (default from config)")
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "Output file (default: name chosen by the server)")
	return cmd
}

// parseEntry parses a title=url argument.
func parseEntry(arg string) (remote.Entry, error) {
	title, url, ok := strings.Cut(arg, "=")
	if !ok || title == "" || url == "" {
		return remote.Entry{}, fmt.Errorf("invalid section %q: want title=url", arg)
	}
	return remote.Entry{Title: title, URL: url, IncludeSeparatorPage: true}, nil
}
