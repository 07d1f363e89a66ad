package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
)

// DeletePageEndpoint handles DELETE /api/sessions/{id}/groups/{group_id}/pages/{page_id}.
type DeletePageEndpoint struct{}

var _ api.Endpoint = (*DeletePageEndpoint)(nil)

func (e *DeletePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}/groups/{group_id}/pages/{page_id}", e.handler
}

func (e *DeletePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a page
//	@Description	Remove one page from a section. Static sections may be emptied.
//	@Tags			pages
//	@Param			id			path	string	true	"Session ID"
//	@Param			group_id	path	string	true	"Group ID"
//	@Param			page_id		path	string	true	"Page ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/groups/{group_id}/pages/{page_id} [delete]
func (e *DeletePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := eng.DeletePage(r.PathValue("group_id"), r.PathValue("page_id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeletePageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session> <group> <page>",
		Short: "Delete a page",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), groupPath(args[0], args[1])+"/pages/"+args[2]); err != nil {
				return err
			}
			fmt.Printf("Deleted page %s\n", args[2])
			return nil
		},
	}
}

// MovePageEndpoint handles POST /api/sessions/{id}/groups/{group_id}/pages/move.
type MovePageEndpoint struct{}

func (e *MovePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/groups/{group_id}/pages/move", e.handler
}

func (e *MovePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Move a page by index within its section
//	@Tags		pages
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string		true	"Session ID"
//	@Param		group_id	path		string		true	"Group ID"
//	@Param		request		body		MoveRequest	true	"Indexes"
//	@Success	200			{object}	ReorderResponse
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/api/sessions/{id}/groups/{group_id}/pages/move [post]
func (e *MovePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := eng.MovePage(r.PathValue("group_id"), req.From, req.To); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReorderResponse{Changed: req.From != req.To})
}

func (e *MovePageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <session> <group> <from> <to>",
		Short: "Move a page within its section",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseMove(args[2], args[3])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ReorderResponse
			if err := client.Post(cmd.Context(), groupPath(args[0], args[1])+"/pages/move", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DropPageEndpoint handles POST /api/sessions/{id}/groups/{group_id}/pages/drop.
type DropPageEndpoint struct{}

func (e *DropPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/groups/{group_id}/pages/drop", e.handler
}

func (e *DropPageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Drop a page onto another
//	@Description	Move the dragged page to the target page's position. Pages never move between sections.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string		true	"Session ID"
//	@Param			group_id	path		string		true	"Group ID"
//	@Param			request		body		DropRequest	true	"Dragged and target page IDs"
//	@Success		200			{object}	ReorderResponse
//	@Router			/api/sessions/{id}/groups/{group_id}/pages/drop [post]
func (e *DropPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req DropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	changed := eng.DropPage(r.PathValue("group_id"), req.DraggedID, req.TargetID)
	writeJSON(w, http.StatusOK, ReorderResponse{Changed: changed})
}

func (e *DropPageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <session> <group> <dragged> <target>",
		Short: "Move a page to another page's position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReorderResponse
			req := DropRequest{DraggedID: args[2], TargetID: args[3]}
			if err := client.Post(cmd.Context(), groupPath(args[0], args[1])+"/pages/drop", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ThumbnailEndpoint handles GET /api/sessions/{id}/groups/{group_id}/pages/{page_id}/thumbnail.
type ThumbnailEndpoint struct{}

func (e *ThumbnailEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/groups/{group_id}/pages/{page_id}/thumbnail", e.handler
}

func (e *ThumbnailEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get a page thumbnail
//	@Tags		pages
//	@Produce	image/jpeg
//	@Param		id			path		string	true	"Session ID"
//	@Param		group_id	path		string	true	"Group ID"
//	@Param		page_id		path		string	true	"Page ID"
//	@Success	200			{file}		binary
//	@Failure	404			{object}	ErrorResponse
//	@Router		/api/sessions/{id}/groups/{group_id}/pages/{page_id}/thumbnail [get]
func (e *ThumbnailEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	p, ok := eng.Page(r.PathValue("group_id"), r.PathValue("page_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	if len(p.Thumbnail) == 0 {
		writeError(w, http.StatusNotFound, "page has no thumbnail")
		return
	}

	w.Header().Set("Content-Type", p.ThumbnailType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Thumbnail)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(p.Thumbnail)
}

func (e *ThumbnailEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "thumbnail <session> <group> <page>",
		Short: "Save a page's thumbnail image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = args[2] + ".jpg"
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()

			client := api.NewClient(getServerURL())
			if _, err := client.Download(cmd.Context(), thumbnailPath(args[0], args[1], args[2]), nil, f); err != nil {
				os.Remove(outPath)
				return err
			}
			fmt.Printf("Saved %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "Output file (default: <page>.jpg)")
	return cmd
}
