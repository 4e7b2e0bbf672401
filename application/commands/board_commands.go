// Package commands defines the write operations of the application
// layer. Each command carries its own validation tags and is dispatched
// through the command bus.
package commands

import (
	"widgetboard/pkg/utils"
)

// MoveNodeCommand repositions a node on the canvas.
type MoveNodeCommand struct {
	NodeID string  `json:"node_id" validate:"required,max=128"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Validate implements bus.Command
func (c MoveNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ResizeNodeCommand changes a node's rendered extent.
type ResizeNodeCommand struct {
	NodeID string  `json:"node_id" validate:"required,max=128"`
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
}

// Validate implements bus.Command
func (c ResizeNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SetViewportCommand pans or zooms the board.
type SetViewportCommand struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom" validate:"required,gt=0"`
}

// Validate implements bus.Command
func (c SetViewportCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ConnectNodesCommand draws an edge between two nodes.
type ConnectNodesCommand struct {
	SourceID string `json:"source_id" validate:"required,max=128"`
	TargetID string `json:"target_id" validate:"required,max=128"`
}

// Validate implements bus.Command
func (c ConnectNodesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DisconnectNodesCommand removes an edge.
type DisconnectNodesCommand struct {
	EdgeID string `json:"edge_id" validate:"required,max=300"`
}

// Validate implements bus.Command
func (c DisconnectNodesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SyncBoardCommand triggers a full reconciliation pass against the
// remote backend.
type SyncBoardCommand struct{}

// Validate implements bus.Command
func (c SyncBoardCommand) Validate() error {
	return nil
}

// UpdateDraftCommand replaces the draft form state of a creator
// template node. Payload is the raw tagged payload envelope.
type UpdateDraftCommand struct {
	NodeID  string `json:"node_id" validate:"required,max=128"`
	Payload []byte `json:"payload" validate:"required"`
}

// Validate implements bus.Command
func (c UpdateDraftCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ChangeWidgetModeCommand switches a widget's visible face.
type ChangeWidgetModeCommand struct {
	NodeID string `json:"node_id" validate:"required,max=128"`
	Mode   string `json:"mode" validate:"required,oneof=creator settings display"`
}

// Validate implements bus.Command
func (c ChangeWidgetModeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEntityCommand deletes the remote entity behind a node and prunes
// the node. Confirm must be set; deletion is irreversible.
type DeleteEntityCommand struct {
	NodeID  string `json:"node_id" validate:"required,max=128"`
	Confirm bool   `json:"confirm"`
}

// Validate implements bus.Command
func (c DeleteEntityCommand) Validate() error {
	return utils.ValidateStruct(c)
}
