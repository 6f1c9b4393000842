package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternscribe/scribe/internal/domain"
)

func TestValidator_CollapseLabelBreaks(t *testing.T) {
	v := NewValidator(domain.DiagramSequence)

	in := "@startuml\nparticipant \"Order\\nService\" as OS\n@enduml"
	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Contains(t, out, `"Order Service"`)
	assert.NotContains(t, out, `\n`)
}

func TestValidator_KeywordSpacing(t *testing.T) {
	v := NewValidator(domain.DiagramUseCases)

	in := "@startuml\nactor\"Customer\"\nusecase\"Place Order\" as UC1\n@enduml"
	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Contains(t, out, `actor "Customer"`)
	assert.Contains(t, out, `usecase "Place Order"`)
}

func TestValidator_InlineNoteToBlock(t *testing.T) {
	v := NewValidator(domain.DiagramSequence)

	in := "@startuml\nA -> B\nnote right of B: handles retries\n@enduml"
	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Contains(t, out, "note right of B\n  handles retries\nend note")
	assert.NotContains(t, out, "note right of B:")
}

func TestValidator_RemapStructuralOperators(t *testing.T) {
	tests := []struct {
		name        string
		diagramType domain.DiagramType
		in          string
		want        string
		preserved   bool
	}{
		{
			name:        "composition_remapped_in_component_diagram",
			diagramType: domain.DiagramArchitecture,
			in:          "@startuml\n[A] *-- [B]\n[C] <|-- [D]\n@enduml",
			want:        "..>",
		},
		{
			name:        "operators_preserved_in_class_diagram",
			diagramType: domain.DiagramClass,
			in:          "@startuml\nA *-- B\nC <|-- D\n@enduml",
			preserved:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewValidator(tt.diagramType).Validate(tt.in)
			require.NoError(t, err)
			if tt.preserved {
				assert.Contains(t, out, "*--")
				assert.Contains(t, out, "<|--")
				return
			}
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, "*--")
			assert.NotContains(t, out, "<|--")
		})
	}
}

func TestValidator_StripMemberBodies(t *testing.T) {
	v := NewValidator(domain.DiagramUseCases)

	in := "@startuml\nactor Customer {\n  +name\n  +email\n}\nusecase \"Order\" as UC1\n@enduml"
	out, err := v.Validate(in)
	require.NoError(t, err)
	assert.Contains(t, out, "actor Customer")
	assert.NotContains(t, out, "+name")
	assert.NotContains(t, out, "+email")

	// Package nesting is not a member body and survives.
	pkg := "@startuml\npackage \"billing\" {\n  [Invoicer]\n}\n@enduml"
	out, err = NewValidator(domain.DiagramArchitecture).Validate(pkg)
	require.NoError(t, err)
	assert.Contains(t, out, "[Invoicer]")
}

func TestValidator_MissingMarkersUnrepairable(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no_markers", "participant A\nA -> B"},
		{"missing_end", "@startuml\nA -> B"},
		{"end_before_start", "@enduml\nA -> B\n@startuml"},
		{"unbalanced_braces", "@startuml\npackage p {\n[A]\n@enduml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(domain.DiagramArchitecture).Validate(tt.in)
			assert.ErrorIs(t, err, ErrUnrepairable)
		})
	}
}

// Re-validating fixed output must return the same output for any input
// the first pass can fix.
func TestValidator_Idempotent(t *testing.T) {
	inputs := []string{
		"@startuml\nactor\"Customer\"\nnote right of Customer: vip\n@enduml",
		"@startuml\nparticipant \"Order\\nService\" as OS\nOS -> DB\n@enduml",
		"@startuml\n[A] *-- [B]\n[B] o-- [C]\nnote left of A: entry\n@enduml",
		"@startuml\nactor U {\n +id\n}\nusecase\"Buy\" as UC\nU ..> UC\n@enduml",
		"@startuml\n@enduml",
	}

	for _, diagramType := range domain.AllDiagramTypes() {
		v := NewValidator(diagramType)
		for _, in := range inputs {
			first, err := v.Validate(in)
			require.NoError(t, err, "type %s input %q", diagramType, in)

			second, err := v.Validate(first)
			require.NoError(t, err, "type %s refix of %q", diagramType, in)
			assert.Equal(t, first, second, "type %s input %q not idempotent", diagramType, in)
		}
	}
}

func TestValidator_RulesPerType(t *testing.T) {
	assert.Len(t, NewValidator(domain.DiagramClass).Rules(), 3)
	assert.Len(t, NewValidator(domain.DiagramSequence).Rules(), 5)
}

func TestExtractSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown_fence",
			in:   "Here you go:\n```plantuml\n@startuml\nA -> B\n@enduml\n```\nHope that helps.",
			want: "@startuml\nA -> B\n@enduml",
		},
		{
			name: "prose_around_markers",
			in:   "Sure!\n@startuml\nA -> B\n@enduml\nLet me know.",
			want: "@startuml\nA -> B\n@enduml",
		},
		{
			name: "already_clean",
			in:   "@startuml\nA -> B\n@enduml",
			want: "@startuml\nA -> B\n@enduml",
		},
		{
			name: "no_markers_trimmed",
			in:   "  just text  ",
			want: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSource(tt.in))
		})
	}
}
