package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.WarnLevel)
	l.Info("hidden")
	l.Warn("shown", "mesh", "cube")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "mesh=cube")
	assert.Contains(t, out, prefix)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOr(t *testing.T) {
	assert.Same(t, Default(), Or(nil))
	d := Discard()
	assert.Same(t, d, Or(d))
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
	d := Discard()
	assert.Same(t, d, FromContext(WithContext(context.Background(), d)))
}
