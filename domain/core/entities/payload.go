package entities

import (
	"encoding/json"
	"fmt"
)

// NodeKind discriminates what a node renders.
type NodeKind string

// Node kinds. Template kinds render creator widgets that are always
// present on the board; entity kinds render a remote entity.
const (
	KindPollCreator NodeKind = "template-poll-creator"
	KindTestCreator NodeKind = "template-test-creator"
	KindPoll        NodeKind = "entity-poll"
	KindTest        NodeKind = "entity-test"
)

// IsTemplate reports whether the kind is a creator template.
func (k NodeKind) IsTemplate() bool {
	return k == KindPollCreator || k == KindTestCreator
}

// IsEntity reports whether the kind renders a remote entity.
func (k NodeKind) IsEntity() bool {
	return k == KindPoll || k == KindTest
}

// ViewMode is the visible face of a widget node.
type ViewMode string

// Widget view modes.
const (
	ModeCreator  ViewMode = "creator"
	ModeSettings ViewMode = "settings"
	ModeDisplay  ViewMode = "display"
)

// IsValid reports whether the mode is one of the known values.
func (m ViewMode) IsValid() bool {
	switch m {
	case ModeCreator, ModeSettings, ModeDisplay:
		return true
	}
	return false
}

// Payload is the kind-specific state carried by a node. Draft payloads
// hold in-progress form state on template nodes; bound payloads tie a
// node to a remote entity.
type Payload interface {
	Kind() NodeKind
}

// PollSettings is the draft settings form of a poll being authored.
type PollSettings struct {
	IsAnonymous     bool   `json:"isAnonymous"`
	MultipleAnswers bool   `json:"multipleAnswers"`
	EndDate         string `json:"endDate,omitempty"`
}

// PollDraftPayload is the in-progress form state of the poll creator.
type PollDraftPayload struct {
	Title    string       `json:"title"`
	Options  []string     `json:"options"`
	Settings PollSettings `json:"settings"`
	Mode     ViewMode     `json:"mode"`
}

// Kind implements Payload.
func (PollDraftPayload) Kind() NodeKind { return KindPollCreator }

// TestSettings is the draft settings form of a test being authored.
type TestSettings struct {
	CompletionTime *int   `json:"completionTime,omitempty"`
	AttemptNumber  *int   `json:"attemptNumber,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
}

// TaskDraft is one question of a test being authored. For choice tasks
// CorrectOptions lists the option texts marked correct; for text tasks
// CorrectText holds the expected answer.
type TaskDraft struct {
	Question       string   `json:"question"`
	Type           TaskType `json:"taskType"`
	Score          int      `json:"score"`
	CorrectText    string   `json:"correctText,omitempty"`
	Options        []string `json:"options,omitempty"`
	CorrectOptions []string `json:"correctOptions,omitempty"`
}

// TestDraftPayload is the in-progress form state of the test creator.
type TestDraftPayload struct {
	Title    string       `json:"title"`
	Tasks    []TaskDraft  `json:"tasks"`
	Settings TestSettings `json:"settings"`
	Mode     ViewMode     `json:"mode"`
}

// Kind implements Payload.
func (TestDraftPayload) Kind() NodeKind { return KindTestCreator }

// PollPayload binds a node to a poll entity. Label is a denormalized
// copy of the poll title refreshed on every reconciliation pass.
type PollPayload struct {
	PollID int64    `json:"pollId"`
	Label  string   `json:"label"`
	Mode   ViewMode `json:"mode"`
}

// Kind implements Payload.
func (PollPayload) Kind() NodeKind { return KindPoll }

// TestPayload binds a node to a test entity. LastResult holds the
// grade of the most recent local attempt, if any.
type TestPayload struct {
	TestID     int64          `json:"testId"`
	Label      string         `json:"label"`
	Mode       ViewMode       `json:"mode"`
	LastResult *AttemptResult `json:"lastResult,omitempty"`
}

// Kind implements Payload.
func (TestPayload) Kind() NodeKind { return KindTest }

// payloadEnvelope is the persisted wire shape of a payload: the kind tag
// selects the concrete type of the data document.
type payloadEnvelope struct {
	Kind NodeKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalPayload encodes a payload into its tagged JSON envelope.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("payload cannot be nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload data: %w", err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Data: data})
}

// UnmarshalPayload decodes a tagged JSON envelope into its concrete
// payload type.
func UnmarshalPayload(raw []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	var p Payload
	switch env.Kind {
	case KindPollCreator:
		var v PollDraftPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("decode poll draft payload: %w", err)
		}
		p = v
	case KindTestCreator:
		var v TestDraftPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("decode test draft payload: %w", err)
		}
		p = v
	case KindPoll:
		var v PollPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("decode poll payload: %w", err)
		}
		p = v
	case KindTest:
		var v TestPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("decode test payload: %w", err)
		}
		p = v
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
	return p, nil
}
