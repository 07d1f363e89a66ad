package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/engine"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/reorder"
	"github.com/jackzampolin/dossier/internal/svcctx"
)

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	// EmployeeID seeds the session's static sections from the storage
	// service descriptor for this employee.
	EmployeeID string `json:"employee_id,omitempty"`
}

// CreateSessionResponse is the response for POST /api/sessions.
type CreateSessionResponse struct {
	SessionView
	SeedError string `json:"seed_error,omitempty"`
}

// ListSessionsResponse is the response for GET /api/sessions.
type ListSessionsResponse struct {
	Sessions []engine.SessionInfo `json:"sessions"`
}

// NoticesResponse is the response for GET /api/sessions/{id}/notices.
type NoticesResponse struct {
	Notices []engine.Notice `json:"notices"`
}

// CreateSessionEndpoint handles POST /api/sessions.
type CreateSessionEndpoint struct{}

var _ api.Endpoint = (*CreateSessionEndpoint)(nil)

func (e *CreateSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions", e.handler
}

func (e *CreateSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a session
//	@Description	Create an assembly session, optionally seeded with an employee's static sections
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateSessionRequest	false	"Seed options"
//	@Success		201		{object}	CreateSessionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/sessions [post]
func (e *CreateSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sessions := svcctx.SessionsFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	if req.EmployeeID == "" {
		eng := sessions.Create()
		writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionView: newSessionView(eng)})
		return
	}

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

	eng := sessions.Create()
	resp := CreateSessionResponse{}
	if err := eng.Seed(r.Context(), desc.SeedDescriptors()); err != nil {
		// The session stays usable with whatever sections were created.
		resp.SeedError = err.Error()
		if logger != nil {
			logger.Warn("session seed failed", "session_id", eng.ID(), "employee_id", req.EmployeeID, "error", err)
		}
	}
	resp.SessionView = newSessionView(eng)
	writeJSON(w, http.StatusCreated, resp)
}

func (e *CreateSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var employeeID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an assembly session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CreateSessionResponse
			if err := client.Post(cmd.Context(), "/api/sessions", CreateSessionRequest{EmployeeID: employeeID}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee-id", "", "Seed static sections from this employee's storage descriptor")
	return cmd
}

// ListSessionsEndpoint handles GET /api/sessions.
type ListSessionsEndpoint struct{}

func (e *ListSessionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions", e.handler
}

func (e *ListSessionsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List sessions
//	@Tags		sessions
//	@Produce	json
//	@Success	200	{object}	ListSessionsResponse
//	@Failure	503	{object}	ErrorResponse
//	@Router		/api/sessions [get]
func (e *ListSessionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.SessionsFrom(r.Context())
	writeJSON(w, http.StatusOK, ListSessionsResponse{Sessions: sessions.List()})
}

func (e *ListSessionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListSessionsResponse
			if err := client.Get(cmd.Context(), "/api/sessions", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetSessionEndpoint handles GET /api/sessions/{id}.
type GetSessionEndpoint struct{}

func (e *GetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}", e.handler
}

func (e *GetSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a session
//	@Description	Get a session with every group and page in output order
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id} [get]
func (e *GetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(eng))
}

func (e *GetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <session>",
		Short: "Show a session's groups and pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SessionView
			if err := client.Get(cmd.Context(), sessionPath(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteSessionEndpoint handles DELETE /api/sessions/{id}.
type DeleteSessionEndpoint struct{}

func (e *DeleteSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}", e.handler
}

func (e *DeleteSessionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Delete a session
//	@Tags		sessions
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id} [delete]
func (e *DeleteSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.SessionsFrom(r.Context())
	if err := sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), sessionPath(args[0])); err != nil {
				return err
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		},
	}
}

// NoticesEndpoint handles GET /api/sessions/{id}/notices.
type NoticesEndpoint struct{}

func (e *NoticesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/notices", e.handler
}

func (e *NoticesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Drain session notices
//	@Description	Return and clear the notices raised by the session's operations
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	NoticesResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/notices [get]
func (e *NoticesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	notices := eng.Notices()
	if notices == nil {
		notices = []engine.Notice{}
	}
	writeJSON(w, http.StatusOK, NoticesResponse{Notices: notices})
}

func (e *NoticesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "notices <session>",
		Short: "Show and clear a session's notices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp NoticesResponse
			if err := client.Get(cmd.Context(), sessionPath(args[0])+"/notices", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// sessionFrom resolves the {id} path value to an engine, writing an error
// response when it cannot.
func sessionFrom(w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	sessions := svcctx.SessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "sessions not initialized")
		return nil, false
	}
	eng, err := sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return eng, true
}

// decodeJSON decodes an optional JSON body into v. An empty body leaves v
// unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var loadErr *docerr.LoadError
	var fetchErr *docerr.FetchError

	switch {
	case errors.Is(err, engine.ErrSessionNotFound),
		errors.Is(err, document.ErrGroupNotFound),
		errors.Is(err, document.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrStaticGroup),
		errors.Is(err, reorder.ErrDragInProgress),
		errors.Is(err, reorder.ErrNoDrag):
		return http.StatusConflict
	case errors.Is(err, document.ErrNotSection),
		errors.Is(err, document.ErrIndexOutOfRange),
		errors.Is(err, reorder.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNothingToExport),
		errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
