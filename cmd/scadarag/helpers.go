package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/schollz/progressbar/v3"

	"scadarag/internal/chunker"
	"scadarag/internal/config"
	"scadarag/internal/domain"
	"scadarag/internal/embedding"
	"scadarag/internal/embedding/openai"
	"scadarag/internal/embedding/tfidf"
	"scadarag/internal/loader"
	"scadarag/internal/logging"
	"scadarag/internal/service"
	"scadarag/internal/summarizer"
	"scadarag/internal/worker"
)

func newChunker(cfg config.ChunkerConfig) domain.Chunker {
	if cfg.Type == "sentence" {
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences)
	}
	return chunker.NewWordChunker(cfg.MaxWords, cfg.OverlapWords)
}

// newEmbedder returns nil for purely lexical ranking.
func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	}
	return nil, nil
}

func newSession(cfg *config.AppConfig, log logr.Logger) (*service.Session, error) {
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	opts := service.Options{
		TopK:             cfg.Retrieval.TopK,
		CandidatePool:    cfg.Retrieval.CandidatePool,
		MMRLambda:        cfg.Retrieval.MMRLambda,
		SummarySentences: cfg.Retrieval.SummarySentences,
	}
	return service.New(opts, newChunker(cfg.Chunker), emb, summarizer.NewFrequencySummarizer(), log), nil
}

// loadDocuments reads the files matched by patterns, showing a spinner on
// stderr while it works.
func loadDocuments(patterns []string) ([]domain.Document, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Loading documents"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	docs, err := loader.New(logging.Logger()).LoadPaths(patterns, func(path string) {
		logging.Debug("loaded file", "path", path)
		bar.Describe(path)
		_ = bar.Add(1)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("documents loaded", "count", len(docs))
	return docs, nil
}

// workerSink feeds watcher changes through the worker so they are ordered
// with every other request.
type workerSink struct {
	w *worker.Worker
}

func (s workerSink) Ingest(ctx context.Context, docs []domain.Document) error {
	p := worker.IngestPayload{Docs: make([]worker.DocPayload, len(docs))}
	for i, d := range docs {
		p.Docs[i] = worker.DocPayload{ID: d.ID, Title: d.Title, Text: d.Text, Size: d.Metadata.Size, Origin: d.Metadata.Origin}
	}
	return s.send(ctx, worker.TypeIngest, p)
}

func (s workerSink) Remove(ctx context.Context, ids []string) error {
	return s.send(ctx, worker.TypeRemove, worker.RemovePayload{IDs: ids})
}

func (s workerSink) send(ctx context.Context, typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := s.w.Do(ctx, worker.Request{Type: typ, Payload: raw})
	if err != nil {
		return err
	}
	if p, ok := resp.Payload.(worker.ErrorPayload); ok {
		return errors.New(p.Message)
	}
	return nil
}
