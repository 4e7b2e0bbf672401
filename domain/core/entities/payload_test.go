package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadEnvelopeRoundTrip(t *testing.T) {
	original := PollDraftPayload{
		Title:   "Team lunch",
		Options: []string{"Ramen", "Tacos"},
		Settings: PollSettings{
			MultipleAnswers: true,
		},
		Mode: ModeSettings,
	}

	raw, err := MarshalPayload(original)
	require.NoError(t, err)

	decoded, err := UnmarshalPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
	assert.Equal(t, KindPollCreator, decoded.Kind())
}

func TestPayloadEnvelopeRejectsUnknownKind(t *testing.T) {
	_, err := UnmarshalPayload([]byte(`{"kind":"entity-wiki","data":{}}`))
	assert.Error(t, err)
}

func TestPayloadEnvelopeRejectsGarbage(t *testing.T) {
	_, err := UnmarshalPayload([]byte(`not json`))
	assert.Error(t, err)
}

func TestBoundPayloadRoundTrip(t *testing.T) {
	original := TestPayload{
		TestID:     9,
		Label:      "Onboarding quiz",
		Mode:       ModeDisplay,
		LastResult: &AttemptResult{ScoreObtained: 7, TotalScore: 10},
	}

	raw, err := MarshalPayload(original)
	require.NoError(t, err)

	decoded, err := UnmarshalPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
