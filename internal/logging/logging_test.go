package logging

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		l, err := New(lvl, false)
		require.NoError(t, err, lvl)
		assert.NotNil(t, l.GetSink())
	}
	_, err := New("loud", true)
	assert.Error(t, err)
}

func Test_New_DebugEnablesVerbosity(t *testing.T) {
	l, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, l.V(1).Enabled())

	l, err = New("info", true)
	require.NoError(t, err)
	assert.False(t, l.V(1).Enabled())
}

func Test_SetLogger(t *testing.T) {
	var lines []string
	SetLogger(funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{}))
	t.Cleanup(func() { SetLogger(logr.Discard()) })

	Info("indexed", "chunks", 3)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"chunks"=3`)
}
