package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"widgetboard/application/commands"
	"widgetboard/application/commands/bus"
	"widgetboard/application/services"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/pkg/common"
	pkgerrors "widgetboard/pkg/errors"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	commandBus *bus.CommandBus
	edges      *services.EdgeService
	errors     *pkgerrors.ErrorHandler
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(commandBus *bus.CommandBus, edges *services.EdgeService, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		commandBus: commandBus,
		edges:      edges,
		errors:     pkgerrors.NewErrorHandler(logger, false),
	}
}

// CreateEdgeRequest is the body of POST /edges
type CreateEdgeRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// CreateEdgeResponse carries the deterministic id of the created edge.
type CreateEdgeResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.ConnectNodesCommand{SourceID: req.SourceID, TargetID: req.TargetID}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edgeID := valueobjects.NewEdgeID(
		valueobjects.NodeID(req.SourceID),
		valueobjects.NodeID(req.TargetID),
	)
	common.RespondJSON(w, http.StatusCreated, CreateEdgeResponse{
		ID:     edgeID.String(),
		Source: req.SourceID,
		Target: req.TargetID,
	})
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DisconnectNodesCommand{EdgeID: chi.URLParam(r, "edgeID")}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDangling handles GET /edges/dangling
func (h *EdgeHandler) ListDangling(w http.ResponseWriter, r *http.Request) {
	dangling, err := h.edges.DanglingEdges()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	views := make([]CreateEdgeResponse, 0, len(dangling))
	for _, edge := range dangling {
		views = append(views, CreateEdgeResponse{
			ID:     edge.ID().String(),
			Source: edge.Source().String(),
			Target: edge.Target().String(),
		})
	}
	common.RespondJSON(w, http.StatusOK, views)
}

// PruneDanglingResponse reports how many edges a prune pass removed.
type PruneDanglingResponse struct {
	Pruned int `json:"pruned"`
}

// PruneDangling handles POST /edges/prune
func (h *EdgeHandler) PruneDangling(w http.ResponseWriter, r *http.Request) {
	pruned, err := h.edges.PruneDanglingEdges(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, PruneDanglingResponse{Pruned: pruned})
}
