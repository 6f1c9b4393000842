package generation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// stubRenderer copies the source next to the output dir as a fake PNG,
// or errors, depending on its verdict.
type stubRenderer struct {
	fail bool
}

func (r *stubRenderer) Render(_ context.Context, sourcePath, outputDir string) (string, error) {
	if r.fail {
		return "", errors.New("render tool unavailable")
	}
	stem := filepath.Base(sourcePath)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	imagePath := filepath.Join(outputDir, stem+".png")
	if err := os.WriteFile(imagePath, []byte("png"), 0o600); err != nil {
		return "", err
	}
	return imagePath, nil
}

func validArtifact(t domain.DiagramType) *domain.DiagramArtifact {
	return &domain.DiagramArtifact{
		Type:          t,
		ValidatedText: "@startuml\nAlice -> Bob\n@enduml",
		Status:        domain.ArtifactValid,
	}
}

func failedArtifact(t domain.DiagramType) *domain.DiagramArtifact {
	return &domain.DiagramArtifact{
		Type:          t,
		Status:        domain.ArtifactFailed,
		FailureReason: "still invalid after 2 repair attempts",
	}
}

func TestWriterWrite_PersistsDocumentAndDiagrams(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(configuration.OutputConfig{Dir: dir}, &stubRenderer{})

	artifacts := []*domain.DiagramArtifact{
		validArtifact(domain.DiagramSequence),
		validArtifact(domain.DiagramClass),
	}

	docPath, err := w.Write(context.Background(), "Payments Service", "# Payments", artifacts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Payments Service.md"), docPath)

	content, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, "# Payments", string(content))

	for _, a := range artifacts {
		assert.FileExists(t, a.SourcePath)
		assert.FileExists(t, a.ImagePath)
		assert.Contains(t, a.SourcePath, "payments-service-")
	}
}

func TestWriterWrite_SkipsNonValidArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(configuration.OutputConfig{Dir: dir}, nil)

	artifacts := []*domain.DiagramArtifact{
		validArtifact(domain.DiagramSequence),
		failedArtifact(domain.DiagramClass),
	}

	_, err := w.Write(context.Background(), "Payments", "# Doc", artifacts)
	require.NoError(t, err)

	sources, err := filepath.Glob(filepath.Join(dir, "diagrams", "*.puml"))
	require.NoError(t, err)
	assert.Len(t, sources, 1)
	assert.Empty(t, artifacts[1].SourcePath)
}

func TestWriterWrite_RenderFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(configuration.OutputConfig{Dir: dir}, &stubRenderer{fail: true})

	artifacts := []*domain.DiagramArtifact{validArtifact(domain.DiagramSequence)}

	_, err := w.Write(context.Background(), "Payments", "# Doc", artifacts)
	require.NoError(t, err)

	assert.FileExists(t, artifacts[0].SourcePath)
	assert.Empty(t, artifacts[0].ImagePath, "a failed render leaves the artifact validated but imageless")
}

func TestWriterWrite_RemovesStaleSiblings(t *testing.T) {
	dir := t.TempDir()
	diagramDir := filepath.Join(dir, "diagrams")
	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(diagramDir, 0o750))
	require.NoError(t, os.MkdirAll(imageDir, 0o750))

	staleSource := filepath.Join(diagramDir, "payments-usecases.puml")
	staleImage := filepath.Join(imageDir, "payments-usecases.png")
	otherEntity := filepath.Join(diagramDir, "billing-sequence.puml")
	require.NoError(t, os.WriteFile(staleSource, []byte("old"), 0o600))
	require.NoError(t, os.WriteFile(staleImage, []byte("old"), 0o600))
	require.NoError(t, os.WriteFile(otherEntity, []byte("keep"), 0o600))

	w := NewWriter(configuration.OutputConfig{Dir: dir}, nil)
	_, err := w.Write(context.Background(), "Payments", "# Doc",
		[]*domain.DiagramArtifact{validArtifact(domain.DiagramSequence)})
	require.NoError(t, err)

	assert.NoFileExists(t, staleSource)
	assert.NoFileExists(t, staleImage)
	assert.FileExists(t, otherEntity, "stale cleanup is scoped to the entity slug")
}

func TestWriterWrite_NarrativeFailureRollsBackDiagrams(t *testing.T) {
	dir := t.TempDir()
	// A directory squatting on the narrative path forces the final write
	// to fail after the diagram sources already landed.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Payments.md"), 0o750))

	w := NewWriter(configuration.OutputConfig{Dir: dir}, nil)
	artifacts := []*domain.DiagramArtifact{
		validArtifact(domain.DiagramSequence),
		validArtifact(domain.DiagramArchitecture),
	}

	_, err := w.Write(context.Background(), "Payments", "# Doc", artifacts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)

	sources, globErr := filepath.Glob(filepath.Join(dir, "diagrams", "*.puml"))
	require.NoError(t, globErr)
	assert.Empty(t, sources, "every diagram written by the failed job must be removed")
	for _, a := range artifacts {
		assert.Empty(t, a.SourcePath)
		assert.Empty(t, a.ImagePath)
	}
}

func TestWriterWrite_HTMLPreview(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(configuration.OutputConfig{Dir: dir, HTMLPreview: true}, nil)

	docPath, err := w.Write(context.Background(), "Payments", "# Title\n\nbody", nil)
	require.NoError(t, err)

	htmlPath := docPath[:len(docPath)-3] + ".html"
	content, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<h1")
}
