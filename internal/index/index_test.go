package index

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadarag/internal/chunker"
	"scadarag/internal/domain"
)

func corpus() []domain.Document {
	return []domain.Document{
		{ID: "A", Title: "A", Text: "redundancia redundancia seguridad"},
		{ID: "B", Title: "B", Text: "protocolo modbus"},
	}
}

func Test_Search_RanksMatchingDocument(t *testing.T) {
	ix := Build(corpus(), chunker.NewWordChunker(1000, 150))
	require.Equal(t, 2, ix.Len())

	res := ix.Search("redundancia", 5)
	require.Len(t, res, 1)
	assert.Equal(t, "A", res[0].Chunk.DocumentID)
	assert.Positive(t, res[0].Score)
	assert.InDelta(t, 2/math.Sqrt(5), res[0].Score, 1e-9)
}

func Test_Build_IDF(t *testing.T) {
	ix := Build(corpus(), chunker.NewWordChunker(1000, 150))
	assert.InDelta(t, math.Log(3.0/2.0)+1, ix.IDF("redundancia"), 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, ix.IDF("modbus"), 1e-12)
	assert.Zero(t, ix.IDF("dnp3"))
	assert.Equal(t, 4, ix.Terms())

	chunks := ix.Chunks()
	assert.Equal(t, map[string]int{"redundancia": 2, "seguridad": 1}, chunks[0].TF)
	w := ix.IDF("redundancia")
	assert.InDelta(t, w*math.Sqrt(5), chunks[0].Norm, 1e-12)
}

func Test_Build_Idempotent(t *testing.T) {
	docs := []domain.Document{
		{ID: "1", Text: strings.Repeat("scada hmi historian ", 40)},
		{ID: "2", Text: "iec 61850 goose redundancia prp hsr"},
		{ID: "3", Text: ""},
	}
	c := chunker.NewWordChunker(30, 5)
	a := Build(docs, c)
	b := Build(docs, c)

	assert.Equal(t, a.idf, b.idf)
	require.Equal(t, a.Len(), b.Len())
	for i := range a.Chunks() {
		assert.Equal(t, a.Chunks()[i].ID, b.Chunks()[i].ID)
		assert.Equal(t, a.Chunks()[i].Norm, b.Chunks()[i].Norm)
	}
	assert.Equal(t, a.Search("scada goose", 10), b.Search("scada goose", 10))
}

func Test_Search_EmptyQuery(t *testing.T) {
	ix := Build(corpus(), chunker.NewWordChunker(1000, 150))
	for _, q := range []string{"", "   ", "?!¿¡ ... ,,", "palabrainexistente"} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			assert.Empty(t, ix.Search(q, 5))
		})
	}
}

func Test_Search_EmptyIndex(t *testing.T) {
	ix := Build(nil, chunker.NewWordChunker(1000, 150))
	assert.Zero(t, ix.Len())
	assert.NotPanics(t, func() {
		assert.Empty(t, ix.Search("redundancia", 3))
	})

	ix = Build([]domain.Document{{ID: "x", Text: "   "}}, chunker.NewWordChunker(1000, 150))
	assert.Empty(t, ix.Search("redundancia", 3))
}

func Test_Search_DegenerateChunk(t *testing.T) {
	ix := BuildFromChunks([]domain.Chunk{
		{ID: "empty", Text: "!!!"},
		{ID: "full", Text: "modbus tcp"},
	})
	assert.Equal(t, normEpsilon, ix.Chunks()[0].Norm)
	res := ix.Search("modbus", 5)
	require.Len(t, res, 1)
	assert.Equal(t, "full", res[0].Chunk.ID)
}

func Test_Search_SortedPositiveTopK(t *testing.T) {
	docs := []domain.Document{
		{ID: "1", Text: "scada scada scada hmi"},
		{ID: "2", Text: "scada hmi hmi plc"},
		{ID: "3", Text: "plc rtu"},
		{ID: "4", Text: "scada"},
		{ID: "5", Text: "historian opc ua"},
	}
	ix := Build(docs, chunker.NewWordChunker(1000, 150))

	all := ix.Search("scada hmi plc", 10)
	require.NotEmpty(t, all)
	for i, r := range all {
		assert.Positive(t, r.Score)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, all[i-1].Score)
		}
	}
	for _, r := range all {
		assert.NotEqual(t, "5", r.Chunk.DocumentID)
	}

	top := ix.Search("scada hmi plc", 2)
	assert.Equal(t, all[:2], top)

	def := ix.Search("scada hmi plc", 0)
	assert.LessOrEqual(t, len(def), DefaultTopK)
}

func Test_Search_TiesKeepBuildOrder(t *testing.T) {
	docs := []domain.Document{
		{ID: "first", Text: "modbus"},
		{ID: "other", Text: "dnp3"},
		{ID: "second", Text: "modbus"},
		{ID: "third", Text: "modbus"},
	}
	ix := Build(docs, chunker.NewWordChunker(1000, 150))
	res := ix.Search("modbus", 3)
	require.Len(t, res, 3)
	assert.Equal(t, "first", res[0].Chunk.DocumentID)
	assert.Equal(t, "second", res[1].Chunk.DocumentID)
	assert.Equal(t, "third", res[2].Chunk.DocumentID)
}

type failingChunker struct{}

func (failingChunker) Chunk(domain.Document) ([]domain.Chunk, error) {
	return nil, fmt.Errorf("unreadable")
}

func Test_Build_ChunkerFailureDegrades(t *testing.T) {
	ix := Build([]domain.Document{{ID: "bad", Title: "Bad", Text: "modbus"}}, failingChunker{})
	require.Equal(t, 1, ix.Len())
	assert.Equal(t, "bad", ix.Chunks()[0].DocumentID)
	assert.Empty(t, ix.Search("modbus", 1))
}
