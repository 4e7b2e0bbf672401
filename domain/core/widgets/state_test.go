package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"widgetboard/domain/config"
	"widgetboard/domain/core/entities"
	pkgerrors "widgetboard/pkg/errors"
)

func TestStepCreatorSettingsToggle(t *testing.T) {
	m := NewMachine(config.DefaultDomainConfig())

	assert.NoError(t, m.Step(entities.ModeCreator, entities.ModeSettings))
	assert.NoError(t, m.Step(entities.ModeSettings, entities.ModeCreator))
	assert.NoError(t, m.Step(entities.ModeCreator, entities.ModeCreator))
}

func TestStepRejectsShortcuts(t *testing.T) {
	m := NewMachine(config.DefaultDomainConfig())

	// Display is only entered through a save and only left through a
	// reopen; Step never allows it.
	assert.Error(t, m.Step(entities.ModeCreator, entities.ModeDisplay))
	assert.Error(t, m.Step(entities.ModeSettings, entities.ModeDisplay))
	assert.Error(t, m.Step(entities.ModeDisplay, entities.ModeCreator))
	assert.Error(t, m.Step(entities.ModeDisplay, entities.ModeSettings))
	assert.Error(t, m.Step("bogus", entities.ModeCreator))
}

func TestReopenCheckOwnership(t *testing.T) {
	m := NewMachine(config.DefaultDomainConfig())

	assert.NoError(t, m.ReopenCheck("anon_abc", "anon_abc", false))

	err := m.ReopenCheck("anon_abc", "anon_other", false)
	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestReopenCheckResponsesGate(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	m := NewMachine(cfg)

	err := m.ReopenCheck("anon_abc", "anon_abc", true)
	assert.True(t, pkgerrors.IsConflict(err))

	cfg.AllowReopenWithResponses = true
	assert.NoError(t, m.ReopenCheck("anon_abc", "anon_abc", true))
}

func TestInitialMode(t *testing.T) {
	assert.Equal(t, entities.ModeDisplay, InitialMode(entities.PollPayload{PollID: 1}))
	assert.Equal(t, entities.ModeCreator, InitialMode(entities.PollDraftPayload{}))
	assert.Equal(t, entities.ModeSettings, InitialMode(entities.TestDraftPayload{Mode: entities.ModeSettings}))
}
