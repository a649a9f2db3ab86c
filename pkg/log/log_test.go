package log

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	z, err := New(&buf, "debug", FormatJSON)
	assert.NoError(t, err)

	Logr(z).WithName("scheduler").Info("Build started", "steps", 3)
	out := buf.String()
	assert.Contains(t, out, `"message":"Build started"`)
	assert.Contains(t, out, `"steps":3`)
	assert.Contains(t, out, `"logger":"scheduler"`)
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	z, err := New(&buf, "warn", FormatJSON)
	assert.NoError(t, err)

	Logr(z).Info("hidden")
	assert.Equal(t, "", buf.String())
}

func TestNewInvalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", FormatJSON)
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "", Format("xml"))
	assert.Error(t, err)
}
