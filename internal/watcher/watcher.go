// Package watcher keeps the corpus in step with a directory on disk.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"scadarag/internal/domain"
	"scadarag/internal/loader"
)

// Sink receives the documents that changed on disk.
type Sink interface {
	Ingest(ctx context.Context, docs []domain.Document) error
	Remove(ctx context.Context, ids []string) error
}

type changeType int

const (
	changeUpsert changeType = iota
	changeDelete
)

type Watcher struct {
	dir      string
	debounce time.Duration
	loader   *loader.Loader
	sink     Sink
	log      logr.Logger
}

func New(dir string, debounce time.Duration, l *loader.Loader, sink Sink, log logr.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{dir: dir, debounce: debounce, loader: l, sink: sink, log: log.WithName("watcher").WithValues("dir", dir)}
}

// Sync ingests every supported file currently in the directory.
func (w *Watcher) Sync(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading watch dir: %w", err)
	}
	pending := make(map[string]changeType)
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && w.relevant(path) {
			pending[path] = changeUpsert
		}
	}
	w.flush(ctx, pending)
	return nil
}

// Watch applies file changes until ctx is cancelled. Bursts of events are
// merged and flushed once the directory has been quiet for the debounce
// interval.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fs watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching for documents")

	pending := make(map[string]changeType)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if t, ok := w.classify(ev); ok {
				pending[ev.Name] = t
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "fs watcher")
		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]changeType)
		}
	}
}

// classify maps an event to a corpus change. Directories, hidden files,
// unsupported types and chmod events are ignored.
func (w *Watcher) classify(ev fsnotify.Event) (changeType, bool) {
	if !w.relevant(ev.Name) {
		return 0, false
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return changeDelete, true
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if st, err := os.Stat(ev.Name); err != nil || st.IsDir() {
			return 0, false
		}
		return changeUpsert, true
	}
	return 0, false
}

func (w *Watcher) relevant(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".") && w.loader.Supported(path)
}

func (w *Watcher) flush(ctx context.Context, pending map[string]changeType) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var docs []domain.Document
	var removed []string
	for _, p := range paths {
		if pending[p] == changeDelete {
			removed = append(removed, loader.DocumentID(p))
			continue
		}
		doc, err := w.loader.LoadFile(p)
		if err != nil {
			w.log.Error(err, "loading changed file", "path", p)
			continue
		}
		docs = append(docs, doc)
	}

	if len(removed) > 0 {
		if err := w.sink.Remove(ctx, removed); err != nil {
			w.log.Error(err, "removing documents", "count", len(removed))
		}
	}
	if len(docs) > 0 {
		if err := w.sink.Ingest(ctx, docs); err != nil {
			w.log.Error(err, "ingesting documents", "count", len(docs))
		}
	}
	w.log.Info("synced changes", "ingested", len(docs), "removed", len(removed))
}
