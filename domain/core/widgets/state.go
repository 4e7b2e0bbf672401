// Package widgets implements the view-state machine governing which face
// of a widget node is visible: the creator form, the settings form, or
// the entity display.
package widgets

import (
	"widgetboard/domain/config"
	"widgetboard/domain/core/entities"
	pkgerrors "widgetboard/pkg/errors"
)

// Machine validates widget view transitions against the board's policy.
type Machine struct {
	cfg *config.DomainConfig
}

// NewMachine creates a view-state machine with the given policy.
func NewMachine(cfg *config.DomainConfig) *Machine {
	return &Machine{cfg: cfg}
}

// InitialMode returns the mode a node starts in: bound nodes open on the
// entity display, template nodes resume whatever draft mode they carry.
func InitialMode(p entities.Payload) entities.ViewMode {
	switch v := p.(type) {
	case entities.PollPayload:
		if v.Mode.IsValid() {
			return v.Mode
		}
		return entities.ModeDisplay
	case entities.TestPayload:
		if v.Mode.IsValid() {
			return v.Mode
		}
		return entities.ModeDisplay
	case entities.PollDraftPayload:
		if v.Mode.IsValid() {
			return v.Mode
		}
	case entities.TestDraftPayload:
		if v.Mode.IsValid() {
			return v.Mode
		}
	}
	return entities.ModeCreator
}

// Step validates a direct view transition. The creator and settings
// forms toggle freely; entering display requires a successful save
// (handled by BindCheck), and leaving display requires ReopenCheck.
func (m *Machine) Step(from, to entities.ViewMode) error {
	if !from.IsValid() || !to.IsValid() {
		return pkgerrors.ErrInvalidTransition
	}
	if from == to {
		return nil
	}

	switch {
	case from == entities.ModeCreator && to == entities.ModeSettings:
		return nil
	case from == entities.ModeSettings && to == entities.ModeCreator:
		return nil
	}
	return pkgerrors.ErrInvalidTransition.WithDetail(
		"transition", string(from)+" -> "+string(to),
	)
}

// BindCheck validates the creator -> display transition, which happens
// only through a successful entity save.
func (m *Machine) BindCheck(node *entities.Node) error {
	if !node.Kind().IsTemplate() {
		return pkgerrors.ErrAlreadyBound
	}
	switch node.Mode() {
	case entities.ModeCreator, entities.ModeSettings:
		return nil
	}
	return pkgerrors.ErrInvalidTransition
}

// ReopenCheck validates the display -> creator transition. Only the
// entity's owner may reopen it, and an entity that has already collected
// responses stays closed unless policy allows reopening.
func (m *Machine) ReopenCheck(ownerID, requesterID string, hasResponses bool) error {
	if ownerID != requesterID {
		return pkgerrors.ErrNotOwner
	}
	if hasResponses && !m.cfg.AllowReopenWithResponses {
		return pkgerrors.NewConflictError(
			"cannot reopen: responses have already been collected",
		).WithCode("HAS_RESPONSES")
	}
	return nil
}
