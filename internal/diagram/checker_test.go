package diagram

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// writeScript installs a fake checker/renderer executable for tests.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "fake-plantuml")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestPlantUMLChecker_Pass(t *testing.T) {
	checker := NewPlantUMLChecker(configuration.CheckerConfig{
		Command: writeScript(t, "exit 0\n"),
		Timeout: 10 * time.Second,
	})

	result, err := checker.Check(context.Background(), "@startuml\n@enduml")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Diagnostic)
}

func TestPlantUMLChecker_FailCapturesStderr(t *testing.T) {
	checker := NewPlantUMLChecker(configuration.CheckerConfig{
		Command: writeScript(t, "echo 'Syntax Error on line 3' >&2\nexit 1\n"),
		Timeout: 10 * time.Second,
	})

	result, err := checker.Check(context.Background(), "@startuml\nbroken\n@enduml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, "Syntax Error on line 3", result.Diagnostic)
}

func TestPlantUMLChecker_FailWithoutStderr(t *testing.T) {
	checker := NewPlantUMLChecker(configuration.CheckerConfig{
		Command: writeScript(t, "exit 200\n"),
		Timeout: 10 * time.Second,
	})

	result, err := checker.Check(context.Background(), "@startuml\n@enduml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Diagnostic, "200")
}

func TestPlantUMLChecker_MissingTool(t *testing.T) {
	checker := NewPlantUMLChecker(configuration.CheckerConfig{
		Command: "/nonexistent/plantuml",
		Timeout: 10 * time.Second,
	})

	_, err := checker.Check(context.Background(), "@startuml\n@enduml")
	assert.Error(t, err)
}

func TestPlantUMLRenderer_ConfirmsImageOnDisk(t *testing.T) {
	// The fake renders by creating the expected PNG in the output dir.
	script := writeScript(t, `src="$2"
out="$4"
base=$(basename "$src" .puml)
echo png > "$out/$base.png"
exit 0
`)

	renderer := NewPlantUMLRenderer(configuration.RendererConfig{
		Command:      script,
		FormatFlag:   "-tpng",
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "order-service-sequence.puml")
	require.NoError(t, os.WriteFile(srcPath, []byte("@startuml\n@enduml"), 0o600))

	outDir := filepath.Join(t.TempDir(), "images")
	imagePath, err := renderer.Render(context.Background(), srcPath, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "order-service-sequence.png"), imagePath)
	assert.FileExists(t, imagePath)
}

func TestPlantUMLRenderer_ZeroExitWithoutImageFails(t *testing.T) {
	renderer := NewPlantUMLRenderer(configuration.RendererConfig{
		Command:      writeScript(t, "exit 0\n"),
		FormatFlag:   "-tpng",
		Timeout:      200 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	})

	srcPath := filepath.Join(t.TempDir(), "x-class.puml")
	require.NoError(t, os.WriteFile(srcPath, []byte("@startuml\n@enduml"), 0o600))

	_, err := renderer.Render(context.Background(), srcPath, t.TempDir())
	assert.Error(t, err)
}
