// Package handlers implements the command handlers dispatched by the
// command bus. They are thin: validation lives on the commands, domain
// rules in the aggregate, and orchestration in the services.
package handlers

import (
	"context"
	"fmt"

	"widgetboard/application/commands"
	"widgetboard/application/commands/bus"
	"widgetboard/application/services"
	"widgetboard/domain/core/entities"
)

// MoveNodeHandler handles MoveNodeCommand.
type MoveNodeHandler struct {
	boards *services.BoardService
}

// NewMoveNodeHandler creates the handler.
func NewMoveNodeHandler(boards *services.BoardService) *MoveNodeHandler {
	return &MoveNodeHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *MoveNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.MoveNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.MoveNode(ctx, c.NodeID, c.X, c.Y)
}

// ResizeNodeHandler handles ResizeNodeCommand.
type ResizeNodeHandler struct {
	boards *services.BoardService
}

// NewResizeNodeHandler creates the handler.
func NewResizeNodeHandler(boards *services.BoardService) *ResizeNodeHandler {
	return &ResizeNodeHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *ResizeNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.ResizeNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.ResizeNode(ctx, c.NodeID, c.Width, c.Height)
}

// SetViewportHandler handles SetViewportCommand.
type SetViewportHandler struct {
	boards *services.BoardService
}

// NewSetViewportHandler creates the handler.
func NewSetViewportHandler(boards *services.BoardService) *SetViewportHandler {
	return &SetViewportHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *SetViewportHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.SetViewportCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.SetViewport(ctx, c.X, c.Y, c.Zoom)
}

// ConnectNodesHandler handles ConnectNodesCommand.
type ConnectNodesHandler struct {
	boards *services.BoardService
}

// NewConnectNodesHandler creates the handler.
func NewConnectNodesHandler(boards *services.BoardService) *ConnectNodesHandler {
	return &ConnectNodesHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *ConnectNodesHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.ConnectNodesCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	_, err := h.boards.ConnectNodes(ctx, c.SourceID, c.TargetID)
	return err
}

// DisconnectNodesHandler handles DisconnectNodesCommand.
type DisconnectNodesHandler struct {
	boards *services.BoardService
}

// NewDisconnectNodesHandler creates the handler.
func NewDisconnectNodesHandler(boards *services.BoardService) *DisconnectNodesHandler {
	return &DisconnectNodesHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *DisconnectNodesHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.DisconnectNodesCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.DisconnectEdge(ctx, c.EdgeID)
}

// SyncBoardHandler handles SyncBoardCommand.
type SyncBoardHandler struct {
	boards *services.BoardService
}

// NewSyncBoardHandler creates the handler.
func NewSyncBoardHandler(boards *services.BoardService) *SyncBoardHandler {
	return &SyncBoardHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *SyncBoardHandler) Handle(ctx context.Context, cmd bus.Command) error {
	if _, ok := cmd.(commands.SyncBoardCommand); !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.Sync(ctx)
}

// UpdateDraftHandler handles UpdateDraftCommand.
type UpdateDraftHandler struct {
	boards *services.BoardService
}

// NewUpdateDraftHandler creates the handler.
func NewUpdateDraftHandler(boards *services.BoardService) *UpdateDraftHandler {
	return &UpdateDraftHandler{boards: boards}
}

// Handle implements bus.CommandHandler
func (h *UpdateDraftHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.UpdateDraftCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.boards.UpdateDraft(ctx, c.NodeID, c.Payload)
}

// ChangeWidgetModeHandler handles ChangeWidgetModeCommand.
type ChangeWidgetModeHandler struct {
	widgets *services.WidgetService
}

// NewChangeWidgetModeHandler creates the handler.
func NewChangeWidgetModeHandler(widgets *services.WidgetService) *ChangeWidgetModeHandler {
	return &ChangeWidgetModeHandler{widgets: widgets}
}

// Handle implements bus.CommandHandler
func (h *ChangeWidgetModeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.ChangeWidgetModeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.widgets.ChangeMode(ctx, c.NodeID, entities.ViewMode(c.Mode))
}

// DeleteEntityHandler handles DeleteEntityCommand.
type DeleteEntityHandler struct {
	widgets *services.WidgetService
}

// NewDeleteEntityHandler creates the handler.
func NewDeleteEntityHandler(widgets *services.WidgetService) *DeleteEntityHandler {
	return &DeleteEntityHandler{widgets: widgets}
}

// Handle implements bus.CommandHandler
func (h *DeleteEntityHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.DeleteEntityCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.widgets.DeleteEntity(ctx, c.NodeID, c.Confirm)
}
