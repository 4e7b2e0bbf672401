package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"widgetboard/application/commands"
	"widgetboard/application/commands/bus"
	"widgetboard/application/queries"
	querybus "widgetboard/application/queries/bus"
	"widgetboard/pkg/common"
	pkgerrors "widgetboard/pkg/errors"
)

// BoardHandler handles board-level HTTP requests: the full board view,
// sync passes, viewport changes, and node geometry updates.
type BoardHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     pkgerrors.NewErrorHandler(logger, false),
	}
}

// GetBoard handles GET /board
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetBoardQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// SyncBoard handles POST /board/sync
func (h *BoardHandler) SyncBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.SyncBoardCommand{}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetBoardQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// SetViewportRequest is the body of PUT /board/viewport
type SetViewportRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// SetViewport handles PUT /board/viewport
func (h *BoardHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req SetViewportRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.SetViewportCommand{X: req.X, Y: req.Y, Zoom: req.Zoom}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNodeRequest is the body of PUT /nodes/{nodeID}/position
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MoveNode handles PUT /nodes/{nodeID}/position
func (h *BoardHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.MoveNodeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		X:      req.X,
		Y:      req.Y,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResizeNodeRequest is the body of PUT /nodes/{nodeID}/size
type ResizeNodeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ResizeNode handles PUT /nodes/{nodeID}/size
func (h *BoardHandler) ResizeNode(w http.ResponseWriter, r *http.Request) {
	var req ResizeNodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.ResizeNodeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Width:  req.Width,
		Height: req.Height,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDraft handles PUT /nodes/{nodeID}/draft. The body is the raw
// tagged payload envelope of the draft form.
func (h *BoardHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("failed to read request body"))
		return
	}
	if !json.Valid(raw) {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("request body must be valid JSON"))
		return
	}

	cmd := commands.UpdateDraftCommand{
		NodeID:  chi.URLParam(r, "nodeID"),
		Payload: raw,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
