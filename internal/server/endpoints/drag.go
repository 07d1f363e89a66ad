package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/reorder"
)

// Drag gesture actions.
const (
	DragBegin  = "begin"
	DragMove   = "move"
	DragDrop   = "drop"
	DragCancel = "cancel"
)

// DragRequest is one step of a pointer drag gesture.
type DragRequest struct {
	Action   string        `json:"action"`
	Item     reorder.Item  `json:"item"`                // begin
	Point    reorder.Point `json:"point"`               // begin, move
	TargetID string        `json:"target_id,omitempty"` // drop; empty when released outside a target
}

// DragResponse reports the gesture's state after a step.
type DragResponse struct {
	Active    bool          `json:"active"`
	Item      *reorder.Item `json:"item,omitempty"`
	Activated bool          `json:"activated,omitempty"` // move: passed the activation distance
	Changed   bool          `json:"changed,omitempty"`   // drop: the model was reordered
}

// DragEndpoint handles POST /api/sessions/{id}/drag.
type DragEndpoint struct{}

var _ api.Endpoint = (*DragEndpoint)(nil)

func (e *DragEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/drag", e.handler
}

func (e *DragEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Drive a drag gesture
//	@Description	Begin, move, drop or cancel the session's single drag gesture. Moves shorter than the activation distance are clicks and drop as no-ops.
//	@Tags			groups
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session ID"
//	@Param			request	body		DragRequest	true	"Gesture step"
//	@Success		200		{object}	DragResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/drag [post]
func (e *DragEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req DragRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tracker := eng.Tracker()
	var resp DragResponse
	var err error

	switch req.Action {
	case DragBegin:
		err = tracker.Begin(req.Item, req.Point)
	case DragMove:
		resp.Activated, err = tracker.Move(req.Point)
	case DragDrop:
		resp.Changed, err = tracker.Drop(req.TargetID)
	case DragCancel:
		tracker.Cancel()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown drag action %q", req.Action))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if item, active := tracker.Active(); active {
		resp.Active = true
		resp.Item = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *DragEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req DragRequest
	var kind, groupID, pageID string
	cmd := &cobra.Command{
		Use:   "drag <session> <begin|move|drop|cancel>",
		Short: "Drive a drag gesture step by step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Action = args[1]
			req.Item = reorder.Item{Kind: reorder.Kind(kind), GroupID: groupID, PageID: pageID}
			client := api.NewClient(getServerURL())
			var resp DragResponse
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/drag", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(reorder.KindGroup), "Item kind: group or page")
	cmd.Flags().StringVar(&groupID, "group", "", "Group being dragged, or the page's group")
	cmd.Flags().StringVar(&pageID, "page", "", "Page being dragged")
	cmd.Flags().Float64Var(&req.Point.X, "x", 0, "Pointer x")
	cmd.Flags().Float64Var(&req.Point.Y, "y", 0, "Pointer y")
	cmd.Flags().StringVar(&req.TargetID, "target", "", "Drop target id")
	return cmd
}
