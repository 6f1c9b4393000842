package diagram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// Renderer produces an image file from validated diagram source.
// Implementations must be safe for concurrent use.
type Renderer interface {
	// Render renders sourcePath into outputDir and returns the path of
	// the produced image. Rendering is best-effort: an error here never
	// downgrades a Valid artifact.
	Render(ctx context.Context, sourcePath, outputDir string) (string, error)
}

// PlantUMLRenderer shells out to the PlantUML tool to produce PNG
// images. The tool's exit code is not fully trusted; success is
// confirmed by polling for the expected output file.
type PlantUMLRenderer struct {
	command      string
	formatFlag   string
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewPlantUMLRenderer creates a renderer from configuration.
func NewPlantUMLRenderer(cfg configuration.RendererConfig) *PlantUMLRenderer {
	command := cfg.Command
	if command == "" {
		command = configuration.DefaultCheckerCommand
	}
	formatFlag := cfg.FormatFlag
	if formatFlag == "" {
		formatFlag = configuration.DefaultFormatFlag
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = configuration.DefaultRendererTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = configuration.DefaultPollInterval
	}
	return &PlantUMLRenderer{
		command:      command,
		formatFlag:   formatFlag,
		timeout:      timeout,
		pollInterval: pollInterval,
		logger:       slog.Default().With("component", "renderer"),
	}
}

// Render runs `<tool> <format-flag> <sourcePath> -o <outputDir>` and
// polls for the expected PNG until it appears or the deadline passes.
func (r *PlantUMLRenderer) Render(ctx context.Context, sourcePath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(renderCtx, r.command, r.formatFlag, sourcePath, "-o", outputDir)
	if err := cmd.Run(); err != nil && renderCtx.Err() != nil {
		return "", fmt.Errorf("renderer timed out after %v: %w", r.timeout, renderCtx.Err())
	}
	// A non-zero exit with the image present still counts as success.

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	imagePath := filepath.Join(outputDir, stem+".png")

	for {
		if info, err := os.Stat(imagePath); err == nil && info.Size() > 0 {
			r.logger.Debug("image rendered", "path", imagePath, "bytes", info.Size())
			return imagePath, nil
		}
		select {
		case <-renderCtx.Done():
			return "", fmt.Errorf("rendered image never appeared at %s: %w", imagePath, renderCtx.Err())
		case <-time.After(r.pollInterval):
		}
	}
}
