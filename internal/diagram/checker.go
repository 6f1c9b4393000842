package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// CheckResult reports one syntax-checker invocation.
type CheckResult struct {
	// Passed is true when the checker exited zero.
	Passed bool

	// Diagnostic carries the checker's stderr when the check failed.
	// Fed verbatim into repair prompts.
	Diagnostic string
}

// SyntaxChecker validates diagram source by invoking an external tool.
// Implementations must be safe for concurrent use.
type SyntaxChecker interface {
	Check(ctx context.Context, source string) (*CheckResult, error)
}

// PlantUMLChecker shells out to the PlantUML tool in -checkonly mode.
// The source is written to a scratch file per call so concurrent checks
// never collide.
type PlantUMLChecker struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPlantUMLChecker creates a checker from configuration.
func NewPlantUMLChecker(cfg configuration.CheckerConfig) *PlantUMLChecker {
	command := cfg.Command
	if command == "" {
		command = configuration.DefaultCheckerCommand
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = configuration.DefaultCheckerTimeout
	}
	return &PlantUMLChecker{
		command: command,
		timeout: timeout,
		logger:  slog.Default().With("component", "checker"),
	}
}

// Check writes the source to a temporary file and runs
// `<tool> -checkonly <file>`. Exit code zero means the source is valid;
// any other exit code yields a failed result whose diagnostic is the
// tool's stderr. An error return means the tool itself could not run.
func (c *PlantUMLChecker) Check(ctx context.Context, source string) (*CheckResult, error) {
	dir, err := os.MkdirTemp("", "scribe-check-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "artifact.puml")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, c.command, "-checkonly", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if runErr == nil {
		c.logger.Debug("syntax check passed", "duration_ms", duration.Milliseconds())
		return &CheckResult{Passed: true}, nil
	}

	if checkCtx.Err() != nil {
		return nil, fmt.Errorf("syntax checker timed out after %v: %w", c.timeout, checkCtx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		diagnostic := strings.TrimSpace(stderr.String())
		if diagnostic == "" {
			diagnostic = fmt.Sprintf("checker exited with code %d", exitErr.ExitCode())
		}
		c.logger.Debug("syntax check failed",
			"exit_code", exitErr.ExitCode(),
			"duration_ms", duration.Milliseconds())
		return &CheckResult{Passed: false, Diagnostic: diagnostic}, nil
	}

	// The tool could not be started at all.
	return nil, fmt.Errorf("failed to run syntax checker %q: %w", c.command, runErr)
}
