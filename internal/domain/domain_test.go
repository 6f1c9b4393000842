package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagramType(t *testing.T) {
	for _, dt := range AllDiagramTypes() {
		assert.True(t, dt.Valid(), "%s must be in the fixed set", dt)
	}
	assert.False(t, DiagramType("flowchart").Valid())

	assert.True(t, DiagramClass.Structural())
	assert.False(t, DiagramSequence.Structural())
	assert.False(t, DiagramArchitecture.Structural())
	assert.False(t, DiagramUseCases.Structural())
}

func TestArtifactStatus_Terminal(t *testing.T) {
	assert.True(t, ArtifactValid.Terminal())
	assert.True(t, ArtifactFailed.Terminal())
	assert.False(t, ArtifactDraft.Terminal())
	assert.False(t, ArtifactSyntaxChecked.Terminal())
	assert.False(t, ArtifactRepairing.Terminal())
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.True(t, JobWritten.Terminal())
	assert.True(t, JobRolledBack.Terminal())
	assert.True(t, JobSkipped.Terminal())
	assert.False(t, JobIdle.Terminal())
	assert.False(t, JobContentDraft.Terminal())
	assert.False(t, JobDiagramsInFlight.Terminal())
	assert.False(t, JobContentFinal.Terminal())
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Payments", "payments"},
		{"spaces collapse", "Payments  Service", "payments-service"},
		{"punctuation collapses", "Auth/Session (v2)", "auth-session-v2"},
		{"already clean", "billing-core", "billing-core"},
		{"digits preserved", "S3 Uploader", "s3-uploader"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestDiagramArtifact_FileStem(t *testing.T) {
	a := NewDiagramArtifact(DiagramSequence, "@startuml\n@enduml")
	assert.Equal(t, "payments-sequence", a.FileStem("payments"))
	assert.Equal(t, ArtifactDraft, a.Status)
	assert.False(t, a.Rendered())
}

func TestPattern_Validate(t *testing.T) {
	valid := Pattern{Name: "cqrs", Category: "architecture", Significance: 7}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Pattern{Category: "architecture", Significance: 5}.Validate())
	assert.Error(t, Pattern{Name: "cqrs", Significance: 5}.Validate())
	assert.Error(t, Pattern{Name: "cqrs", Category: "architecture", Significance: 0}.Validate())
	assert.Error(t, Pattern{Name: "cqrs", Category: "architecture", Significance: 11}.Validate())
}

func TestGenerationRequest_Validate(t *testing.T) {
	base := GenerationRequest{
		EntityName: "Payments",
		EntityType: "component",
		Patterns:   []Pattern{{Name: "cqrs", Category: "architecture", Significance: 5}},
	}
	assert.NoError(t, base.Validate())

	noPatterns := base
	noPatterns.Patterns = nil
	assert.Error(t, noPatterns.Validate())

	badPattern := base
	badPattern.Patterns = []Pattern{{Name: "cqrs", Category: "architecture", Significance: 12}}
	assert.Error(t, badPattern.Validate())

	badType := base
	badType.DiagramTypes = []DiagramType{"flowchart"}
	err := badType.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDiagramType)
}

func TestGenerationRequest_Diagrams(t *testing.T) {
	req := GenerationRequest{}
	assert.Equal(t, AllDiagramTypes(), req.Diagrams())

	req.DiagramTypes = []DiagramType{DiagramClass}
	assert.Equal(t, []DiagramType{DiagramClass}, req.Diagrams())
}

func TestSignificance(t *testing.T) {
	patterns := []Pattern{
		{Name: "a", Category: "c", Significance: 1},
		{Name: "b", Category: "c", Significance: 3},
		{Name: "c", Category: "c", Significance: 5},
		{Name: "d", Category: "c", Significance: 9},
	}

	assert.Equal(t, 3, CountSignificant(patterns, 3))
	assert.Equal(t, 1, CountSignificant(patterns, 7))
	assert.Zero(t, CountSignificant(nil, 3))

	d := Distribution(patterns)
	assert.Equal(t, 2, d.Low)
	assert.Equal(t, 1, d.Medium)
	assert.Equal(t, 1, d.High)
	assert.Equal(t, "low(1-3)=2 medium(4-6)=1 high(7-10)=1", d.String())
}

func TestJobResult_RecordArtifacts(t *testing.T) {
	valid := NewDiagramArtifact(DiagramSequence, "src")
	valid.Status = ArtifactValid
	valid.SourcePath = "/out/diagrams/payments-sequence.puml"

	failed := NewDiagramArtifact(DiagramClass, "src")
	failed.Status = ArtifactFailed
	failed.FailureReason = "still invalid after 2 repair attempts"
	failed.Repairs = []RepairAttempt{{Index: 1}, {Index: 2}}

	var r JobResult
	r.RecordArtifacts([]*DiagramArtifact{valid, failed})

	assert.Equal(t, 2, r.ArtifactsAttempted)
	assert.Equal(t, 1, r.SuccessfulDiagrams)
	assert.Equal(t, 1, r.FailedDiagrams)
	require.Len(t, r.Artifacts, 2)
	assert.Equal(t, "/out/diagrams/payments-sequence.puml", r.Artifacts[0].SourcePath)
	assert.Equal(t, 2, r.Artifacts[1].RepairCount)
	assert.NotEmpty(t, r.Artifacts[1].FailureReason)
}
