// Package config provides domain configuration for the widget board.
// It centralizes the template registry, layout grid geometry, and widget
// policy flags so that reconciliation and widget behavior stay consistent
// across the codebase.
package config

// TemplateDef describes a permanent creator template that must always be
// present on the board. Templates are re-synthesized at their default
// position whenever they are missing from the persisted snapshot.
type TemplateDef struct {
	// ID is the stable node identifier of the template.
	ID string
	// Kind is the node kind synthesized for this template.
	Kind string
	// X, Y is the default top-left position of the template node.
	X float64
	Y float64
	// Width, Height is the default size of the template node.
	Width  float64
	Height float64
	// DefaultTitle seeds the draft form of a freshly synthesized template.
	DefaultTitle string
}

// GridConfig describes the deterministic layout grid used to place
// entity nodes that have no persisted position.
type GridConfig struct {
	// Columns is the number of grid columns per entity kind.
	Columns int
	// OriginX, OriginY is the top-left corner of the poll grid.
	OriginX float64
	OriginY float64
	// CellWidth, CellHeight is the stride between adjacent grid cells.
	CellWidth  float64
	CellHeight float64
	// TestBandOffsetX shifts the test grid right of the poll grid so the
	// two entity kinds never collide at equal ordinals.
	TestBandOffsetX float64
}

// DomainConfig holds all board-level domain settings.
type DomainConfig struct {
	// Templates is the registry of creator templates, in board order.
	Templates []TemplateDef

	// Grid is the deterministic placement grid for new entity nodes.
	Grid GridConfig

	// DefaultNodeWidth, DefaultNodeHeight size freshly synthesized
	// entity nodes.
	DefaultNodeWidth  float64
	DefaultNodeHeight float64

	// AllowReopenWithResponses permits reopening a widget's creator view
	// even after the entity has collected responses.
	AllowReopenWithResponses bool

	// MaxTitleLength bounds entity titles accepted from draft forms.
	MaxTitleLength int
	// MaxPollOptions bounds the number of choices a poll draft may carry.
	MaxPollOptions int
	// MaxTestTasks bounds the number of tasks a test draft may carry.
	MaxTestTasks int
	// MaxEdgesPerNode bounds the number of edges attached to one node.
	MaxEdgesPerNode int
}

// Template kinds used by the registry. They mirror the node kinds defined
// by the entities package; config stays free of domain imports.
const (
	TemplateKindPollCreator = "template-poll-creator"
	TemplateKindTestCreator = "template-test-creator"
)

// DefaultDomainConfig returns the standard board configuration.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		Templates: []TemplateDef{
			{
				ID:           "template-poll-creator",
				Kind:         TemplateKindPollCreator,
				X:            250,
				Y:            5,
				Width:        320,
				Height:       220,
				DefaultTitle: "New poll",
			},
			{
				ID:           "template-test-creator",
				Kind:         TemplateKindTestCreator,
				X:            800,
				Y:            5,
				Width:        320,
				Height:       220,
				DefaultTitle: "New test",
			},
		},
		Grid: GridConfig{
			Columns:         3,
			OriginX:         100,
			OriginY:         400,
			CellWidth:       320,
			CellHeight:      260,
			TestBandOffsetX: 3 * 320,
		},
		DefaultNodeWidth:         300,
		DefaultNodeHeight:        240,
		AllowReopenWithResponses: false,
		MaxTitleLength:           200,
		MaxPollOptions:           20,
		MaxTestTasks:             50,
		MaxEdgesPerNode:          50,
	}
}

// Template returns the template definition with the given id, if any.
func (c *DomainConfig) Template(id string) (TemplateDef, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return TemplateDef{}, false
}
