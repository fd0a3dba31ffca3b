package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadarag/internal/chunker"
	"scadarag/internal/config"
	"scadarag/internal/domain"
	"scadarag/internal/logging"
	"scadarag/internal/worker"
)

func Test_newChunker(t *testing.T) {
	assert.IsType(t, &chunker.WordChunker{}, newChunker(config.ChunkerConfig{Type: "word", MaxWords: 10, OverlapWords: 2}))
	assert.IsType(t, &chunker.SentenceChunker{}, newChunker(config.ChunkerConfig{Type: "sentence", SentencesPerChunk: 3}))
}

func Test_newEmbedder(t *testing.T) {
	emb, err := newEmbedder(config.EmbedderConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, emb)

	emb, err = newEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	assert.Equal(t, "tfidf", emb.Name())

	_, err = newEmbedder(config.EmbedderConfig{Type: "openai"})
	assert.Error(t, err)

	_, err = newEmbedder(config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "SCADARAG_SURELY_UNSET_KEY"}})
	assert.Error(t, err)
}

func Test_workerSink(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	sess, err := newSession(cfg, logr.Discard())
	require.NoError(t, err)

	w := worker.New(sess, 4, logr.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sink := workerSink{w: w}
	require.NoError(t, sink.Ingest(ctx, []domain.Document{{ID: "a", Title: "a.txt", Text: "redundancia"}}))
	ans, err := sess.Query(ctx, "redundancia", 1)
	require.NoError(t, err)
	require.Len(t, ans.Hits, 1)
	assert.Equal(t, "a.txt", ans.Hits[0].Chunk.Title)

	require.NoError(t, sink.Remove(ctx, []string{"a"}))
	assert.Zero(t, sess.Stats().Documents)
}

func Test_loadDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("uno dos"), 0o644))

	docs, err := loadDocuments([]string{filepath.Join(dir, "*.txt")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "uno dos", docs[0].Text)
}

func Test_excerpt(t *testing.T) {
	assert.Equal(t, "a b", excerpt(" a  b ", 5))
	assert.Equal(t, "a b ...", excerpt("a b c", 2))
}

func Test_setup_InstallsLogger(t *testing.T) {
	logging.SetLogger(logr.Discard())
	oldCfg, oldVerbose := cfgFile, verbose
	t.Cleanup(func() {
		cfgFile, verbose = oldCfg, oldVerbose
		logging.SetLogger(logr.Discard())
	})

	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	verbose = true
	cfg, err := setup()
	require.NoError(t, err)
	assert.Equal(t, "word", cfg.Chunker.Type)
	assert.True(t, logging.Logger().V(1).Enabled())

	sess, err := newSession(cfg, logging.Logger())
	require.NoError(t, err)
	assert.False(t, sess.Stats().Indexed)
}
