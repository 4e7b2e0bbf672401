package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"widgetboard/application/commands"
	"widgetboard/application/commands/bus"
	"widgetboard/application/queries"
	querybus "widgetboard/application/queries/bus"
	"widgetboard/application/services"
	"widgetboard/domain/core/entities"
	"widgetboard/pkg/common"
	pkgerrors "widgetboard/pkg/errors"
)

// WidgetHandler handles widget-level HTTP requests: mode changes,
// creator saves, voting, test attempts, and entity access.
type WidgetHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	widgets    *services.WidgetService
	errors     *pkgerrors.ErrorHandler
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	widgets *services.WidgetService,
	logger *zap.Logger,
) *WidgetHandler {
	return &WidgetHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		widgets:    widgets,
		errors:     pkgerrors.NewErrorHandler(logger, false),
	}
}

// ChangeModeRequest is the body of POST /nodes/{nodeID}/mode
type ChangeModeRequest struct {
	Mode string `json:"mode"`
}

// ChangeMode handles POST /nodes/{nodeID}/mode
func (h *WidgetHandler) ChangeMode(w http.ResponseWriter, r *http.Request) {
	var req ChangeModeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.ChangeWidgetModeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Mode:   req.Mode,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveResponse reports a successful creator save: the node the template
// was rebound to plus the created entity.
type SaveResponse struct {
	NodeID string         `json:"node_id"`
	Poll   *entities.Poll `json:"poll,omitempty"`
	Test   *entities.Test `json:"test,omitempty"`
}

// Save handles POST /nodes/{nodeID}/save. Result-bearing, so it calls
// the widget service directly rather than going through the command bus.
func (h *WidgetHandler) Save(w http.ResponseWriter, r *http.Request) {
	result, err := h.widgets.Save(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, SaveResponse{
		NodeID: result.NodeID.String(),
		Poll:   result.Poll,
		Test:   result.Test,
	})
}

// VoteRequest is the body of POST /nodes/{nodeID}/vote
type VoteRequest struct {
	ChoiceIDs []int64 `json:"choice_ids"`
}

// Vote handles POST /nodes/{nodeID}/vote
func (h *WidgetHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	poll, err := h.widgets.Vote(r.Context(), chi.URLParam(r, "nodeID"), req.ChoiceIDs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, poll)
}

// Unvote handles POST /nodes/{nodeID}/unvote
func (h *WidgetHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	poll, err := h.widgets.Unvote(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, poll)
}

// SubmitAttemptRequest is the body of POST /nodes/{nodeID}/attempts
type SubmitAttemptRequest struct {
	Answers []entities.TaskAnswer `json:"answers"`
}

// SubmitAttempt handles POST /nodes/{nodeID}/attempts
func (h *WidgetHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttemptRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.widgets.SubmitAttempt(r.Context(), chi.URLParam(r, "nodeID"), req.Answers)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, result)
}

// GetEntity handles GET /nodes/{nodeID}/entity
func (h *WidgetHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetEntityQuery{
		NodeID: chi.URLParam(r, "nodeID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// DeleteEntity handles DELETE /nodes/{nodeID}/entity. Deletion is
// irreversible, so the caller must pass confirm=true.
func (h *WidgetHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteEntityCommand{
		NodeID:  chi.URLParam(r, "nodeID"),
		Confirm: r.URL.Query().Get("confirm") == "true",
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
