package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("frame skipped", "reason", "outdated")
	assert.Contains(t, buf.String(), "frame skipped")
	assert.Contains(t, buf.String(), "outdated")
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
