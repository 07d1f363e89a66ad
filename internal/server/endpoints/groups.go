package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/document"
)

// AddGroupRequest is the body for POST /api/sessions/{id}/groups.
type AddGroupRequest struct {
	Title                string `json:"title"`
	Type                 string `json:"type,omitempty"` // "section" (default) or "separator"
	IncludeSeparatorPage bool   `json:"include_separator_page,omitempty"`
}

// UpdateGroupRequest is the body for PATCH /api/sessions/{id}/groups/{group_id}.
type UpdateGroupRequest struct {
	Expanded            *bool `json:"expanded,omitempty"`
	ToggleSeparatorPage bool  `json:"toggle_separator_page,omitempty"`
}

// MoveRequest moves the item at From to index To.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DropRequest drops the dragged item onto the target item.
type DropRequest struct {
	DraggedID string `json:"dragged_id"`
	TargetID  string `json:"target_id"`
}

// ReorderResponse reports whether a reorder changed anything.
type ReorderResponse struct {
	Changed bool `json:"changed"`
}

// AddGroupEndpoint handles POST /api/sessions/{id}/groups.
type AddGroupEndpoint struct{}

var _ api.Endpoint = (*AddGroupEndpoint)(nil)

func (e *AddGroupEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/groups", e.handler
}

func (e *AddGroupEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Add a group
//	@Description	Append an empty section or a separator to the end of the session
//	@Tags			groups
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		AddGroupRequest	true	"Group to add"
//	@Success		201		{object}	GroupView
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/groups [post]
func (e *AddGroupEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req AddGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	var g document.Group
	switch document.GroupType(req.Type) {
	case "", document.TypeSection:
		g = eng.AddSection(req.Title, req.IncludeSeparatorPage)
	case document.TypeSeparator:
		g = eng.AddSeparator(req.Title)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown group type %q", req.Type))
		return
	}
	writeJSON(w, http.StatusCreated, newGroupView(eng.ID(), g))
}

func (e *AddGroupEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req AddGroupRequest
	var separator bool
	cmd := &cobra.Command{
		Use:   "add <session> <title>",
		Short: "Add a section or separator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[1]
			if separator {
				req.Type = string(document.TypeSeparator)
			}
			client := api.NewClient(getServerURL())
			var resp GroupView
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/groups", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&separator, "separator", false, "Add a separator instead of a section")
	cmd.Flags().BoolVar(&req.IncludeSeparatorPage, "separator-page", false, "Emit a title page before the section")
	return cmd
}

// UpdateGroupEndpoint handles PATCH /api/sessions/{id}/groups/{group_id}.
type UpdateGroupEndpoint struct{}

func (e *UpdateGroupEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/sessions/{id}/groups/{group_id}", e.handler
}

func (e *UpdateGroupEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a group
//	@Description	Set the expanded flag and/or toggle a section's separator page
//	@Tags			groups
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Session ID"
//	@Param			group_id	path		string				true	"Group ID"
//	@Param			request		body		UpdateGroupRequest	true	"Changes"
//	@Success		200			{object}	GroupView
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/sessions/{id}/groups/{group_id} [patch]
func (e *UpdateGroupEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req UpdateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	groupID := r.PathValue("group_id")
	if req.ToggleSeparatorPage {
		if _, err := eng.ToggleSeparatorPage(groupID); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	if req.Expanded != nil {
		if err := eng.SetExpanded(groupID, *req.Expanded); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}

	g, ok := eng.Group(groupID)
	if !ok {
		writeError(w, http.StatusNotFound, document.ErrGroupNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, newGroupView(eng.ID(), g))
}

func (e *UpdateGroupEndpoint) Command(getServerURL func() string) *cobra.Command {
	var toggle, expand, collapse bool
	cmd := &cobra.Command{
		Use:   "update <session> <group>",
		Short: "Toggle a section's separator page or expand/collapse a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := UpdateGroupRequest{ToggleSeparatorPage: toggle}
			switch {
			case expand && collapse:
				return fmt.Errorf("--expand and --collapse are mutually exclusive")
			case expand:
				req.Expanded = &expand
			case collapse:
				v := false
				req.Expanded = &v
			}
			client := api.NewClient(getServerURL())
			var resp GroupView
			if err := client.Patch(cmd.Context(), groupPath(args[0], args[1]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&toggle, "toggle-separator-page", false, "Flip whether the section gets a title page")
	cmd.Flags().BoolVar(&expand, "expand", false, "Mark the group expanded")
	cmd.Flags().BoolVar(&collapse, "collapse", false, "Mark the group collapsed")
	return cmd
}

// DeleteGroupEndpoint handles DELETE /api/sessions/{id}/groups/{group_id}.
type DeleteGroupEndpoint struct{}

func (e *DeleteGroupEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}/groups/{group_id}", e.handler
}

func (e *DeleteGroupEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a group
//	@Description	Remove a group and its pages. Static sections cannot be deleted.
//	@Tags			groups
//	@Param			id			path	string	true	"Session ID"
//	@Param			group_id	path	string	true	"Group ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/groups/{group_id} [delete]
func (e *DeleteGroupEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := eng.DeleteGroup(r.PathValue("group_id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteGroupEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session> <group>",
		Short: "Delete a group and its pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), groupPath(args[0], args[1])); err != nil {
				return err
			}
			fmt.Printf("Deleted group %s\n", args[1])
			return nil
		},
	}
}

// MoveGroupEndpoint handles POST /api/sessions/{id}/groups/move.
type MoveGroupEndpoint struct{}

func (e *MoveGroupEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/groups/move", e.handler
}

func (e *MoveGroupEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Move a group by index
//	@Tags		groups
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"Session ID"
//	@Param		request	body		MoveRequest	true	"Indexes"
//	@Success	200		{object}	ReorderResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/sessions/{id}/groups/move [post]
func (e *MoveGroupEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := eng.MoveGroup(req.From, req.To); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReorderResponse{Changed: req.From != req.To})
}

func (e *MoveGroupEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <session> <from> <to>",
		Short: "Move a group from one index to another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseMove(args[1], args[2])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ReorderResponse
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/groups/move", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DropGroupEndpoint handles POST /api/sessions/{id}/groups/drop.
type DropGroupEndpoint struct{}

func (e *DropGroupEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/groups/drop", e.handler
}

func (e *DropGroupEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Drop a group onto another
//	@Description	Move the dragged group to the target group's position
//	@Tags			groups
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session ID"
//	@Param			request	body		DropRequest	true	"Dragged and target group IDs"
//	@Success		200		{object}	ReorderResponse
//	@Router			/api/sessions/{id}/groups/drop [post]
func (e *DropGroupEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req DropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ReorderResponse{Changed: eng.DropGroup(req.DraggedID, req.TargetID)})
}

func (e *DropGroupEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <session> <dragged> <target>",
		Short: "Move a group to another group's position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReorderResponse
			req := DropRequest{DraggedID: args[1], TargetID: args[2]}
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/groups/drop", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

func parseMove(from, to string) (MoveRequest, error) {
	f, err := strconv.Atoi(from)
	if err != nil {
		return MoveRequest{}, fmt.Errorf("invalid from index %q", from)
	}
	t, err := strconv.Atoi(to)
	if err != nil {
		return MoveRequest{}, fmt.Errorf("invalid to index %q", to)
	}
	return MoveRequest{From: f, To: t}, nil
}
