package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "schemadiff", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	// Check subcommands are registered
	expectedCommands := []string{"version", "diff", "snapshot", "history", "completion"}
	registered := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		registered[sub.Name()] = true
	}
	for _, expected := range expectedCommands {
		assert.True(t, registered[expected], "expected command %s to be registered", expected)
	}

	for _, flag := range []string{"config", "no-color", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "expected persistent flag --%s", flag)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"
	defer func() {
		Version, GitCommit, BuildDate, GoVersion = "dev", "unknown", "unknown", "unknown"
	}()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	for _, want := range []string{"1.0.0-test", "abc123", "2025-01-01", "go1.23"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"completion", shell})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), "schemadiff")
		})
	}

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, cmd.Execute())
}

func TestConfigErrorIsReported(t *testing.T) {
	cmd := NewRootCommand()
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "history", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, isReported(err))
	assert.Contains(t, stderr.String(), "CONFIGURATION ERROR")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemadiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  dsn: "+filepath.Join(dir, "h.db")+"\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "--log-level", "loud", "history", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid log level"))
}
