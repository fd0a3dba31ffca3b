package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Embed_RequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "scada")
	assert.Error(t, err)
}

func Test_Embed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"redundancia scada", "protocolo modbus", "scada hmi"}))
	assert.Equal(t, "tfidf", e.Name())
	assert.Equal(t, 5, e.Dimension())

	v, err := e.Embed(context.Background(), "SCADA redundancia desconocido")
	require.NoError(t, err)
	require.Len(t, v, 5)

	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	zero, err := e.Embed(context.Background(), "nada conocido")
	require.NoError(t, err)
	for _, x := range zero {
		assert.Zero(t, x)
	}
}

func Test_Prepare_EmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(nil))
	assert.Zero(t, e.Dimension())
	v, err := e.Embed(context.Background(), "scada")
	require.NoError(t, err)
	assert.Empty(t, v)
}
