package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/kbuild/kmanifest"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	assert.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.json")

	out := execute(t,
		"--build-id", "first",
		"--log-level", "error",
		"--manifest-out", manifestPath,
		"--state-dir", filepath.Join(dir, "state"),
	)
	assert.Contains(t, out, "Installed features: [camel-aws-secrets-manager]")

	b, err := os.ReadFile(manifestPath)
	assert.NoError(t, err)
	m, err := kmanifest.Decode(b)
	assert.NoError(t, err)
	assert.Equal(t, "first", m.BuildID)
	assert.Equal(t, []string{"camel-aws-secrets-manager"}, m.Features)
	assert.True(t, m.Succeeded())

	out = execute(t,
		"--build-id", "second",
		"--log-level", "error",
		"--parallelism", "4",
		"--state-dir", filepath.Join(dir, "state"),
	)
	assert.Contains(t, out, "Build output identical to first")
}

func TestBuildCommandEnv(t *testing.T) {
	t.Setenv("KBUILD_LOG_LEVEL", "nonsense")

	cmd := newRootCmd()
	cmd.SetArgs(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	assert.Error(t, err)
	assert.Contains(t, out.String(), "invalid log level")
}
