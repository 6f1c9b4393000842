package generation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/patternscribe/scribe/internal/diagram"
	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// Writer persists a job's artifacts under the output directory:
// the narrative at <dir>/<EntityName>.md, diagram sources under
// <dir>/diagrams/, rendered images under <dir>/images/. Writes happen
// only in the strictly sequential stage after all diagram tasks join,
// so no locking is needed.
type Writer struct {
	outputDir   string
	htmlPreview bool
	renderer    diagram.Renderer
	logger      *slog.Logger
}

// NewWriter creates a writer. renderer may be nil to skip image
// rendering entirely.
func NewWriter(cfg configuration.OutputConfig, renderer diagram.Renderer) *Writer {
	return &Writer{
		outputDir:   cfg.Dir,
		htmlPreview: cfg.HTMLPreview,
		renderer:    renderer,
		logger:      slog.Default().With("component", "writer"),
	}
}

// Write persists the job. Stale sibling files from earlier runs for the
// same entity are removed first, then valid diagram sources (and their
// images, best-effort), then the narrative. A narrative write failure
// deletes every diagram file this job persisted so no diagram ever
// exists without its owning document; a failed image render is recorded
// as validated-but-not-rendered and never fails the job.
func (w *Writer) Write(ctx context.Context, entityName, narrative string, artifacts []*domain.DiagramArtifact) (string, error) {
	slug := domain.Slug(entityName)
	diagramDir := filepath.Join(w.outputDir, "diagrams")
	imageDir := filepath.Join(w.outputDir, "images")

	for _, dir := range []string{w.outputDir, diagramDir, imageDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	w.removeStale(slug, diagramDir, imageDir)

	var written []string
	rollback := func() {
		for _, path := range written {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				w.logger.Error("rollback failed to remove file", "path", path, "error", err)
			}
		}
	}

	for _, artifact := range artifacts {
		if artifact.Status != domain.ArtifactValid {
			continue
		}

		sourcePath := filepath.Join(diagramDir, artifact.FileStem(slug)+".puml")
		if err := os.WriteFile(sourcePath, []byte(artifact.ValidatedText), 0o600); err != nil {
			// Persisting one diagram is partial-success territory; the
			// artifact simply loses its files.
			w.logger.Warn("diagram source write failed",
				"type", artifact.Type, "path", sourcePath, "error", err)
			continue
		}
		artifact.SourcePath = sourcePath
		written = append(written, sourcePath)

		if w.renderer != nil {
			imagePath, err := w.renderer.Render(ctx, sourcePath, imageDir)
			if err != nil {
				w.logger.Warn("diagram validated but not rendered",
					"type", artifact.Type, "error", err)
			} else {
				artifact.ImagePath = imagePath
				written = append(written, imagePath)
			}
		}
	}

	docPath := filepath.Join(w.outputDir, entityName+".md")
	if err := os.WriteFile(docPath, []byte(narrative), 0o600); err != nil {
		rollback()
		for _, artifact := range artifacts {
			artifact.SourcePath = ""
			artifact.ImagePath = ""
		}
		return "", fmt.Errorf("%w: %s: %v", ErrWriteFailed, docPath, err)
	}

	if w.htmlPreview {
		if err := w.writePreview(docPath, narrative); err != nil {
			w.logger.Warn("html preview failed", "error", err)
		}
	}

	w.logger.Info("job persisted",
		"document", docPath,
		"diagram_files", len(written))
	return docPath, nil
}

// removeStale deletes diagram files left behind by a previous run for
// the same entity so orphans never accumulate across retries.
func (w *Writer) removeStale(slug, diagramDir, imageDir string) {
	patterns := []string{
		filepath.Join(diagramDir, slug+"-*.puml"),
		filepath.Join(imageDir, slug+"-*.png"),
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				w.logger.Warn("failed to remove stale file", "path", path, "error", err)
			}
		}
	}
}

// writePreview renders the narrative to standalone HTML next to the
// Markdown document.
func (w *Writer) writePreview(docPath, narrative string) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(narrative), &buf); err != nil {
		return fmt.Errorf("markdown conversion failed: %w", err)
	}

	htmlPath := docPath[:len(docPath)-len(filepath.Ext(docPath))] + ".html"
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
