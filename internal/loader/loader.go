// Package loader turns files into documents ready for ingestion.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"scadarag/internal/domain"
)

// ErrUnsupportedType is returned for files no reader understands.
var ErrUnsupportedType = errors.New("unsupported file type")

type Loader struct {
	log     logr.Logger
	readers []reader
}

func New(log logr.Logger) *Loader {
	return &Loader{
		log:     log.WithName("loader"),
		readers: []reader{textReader{}, csvReader{}, xlsxReader{}, docReader{}},
	}
}

// Supported reports whether name has an extension some reader handles.
func (l *Loader) Supported(name string) bool {
	return l.readerFor(name) != nil
}

// LoadFile reads the file at path. The document ID is derived from the path
// so reloading the same file replaces the earlier version.
func (l *Loader) LoadFile(path string) (domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, err
	}
	defer f.Close()

	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	return l.Load(path, f, size)
}

// Load extracts text from r, treating origin as the file name. Content a
// reader fails to parse yields a document with empty text and a logged
// warning; only unknown extensions are an error.
func (l *Loader) Load(origin string, r io.Reader, size int64) (domain.Document, error) {
	rd := l.readerFor(origin)
	if rd == nil {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(origin))
	}
	text, err := rd.ReadText(origin, r)
	if err != nil {
		l.log.Info("could not extract text, indexing it empty", "origin", origin, "error", err.Error())
		text = ""
	}
	return domain.Document{
		ID:       DocumentID(origin),
		Title:    filepath.Base(origin),
		Text:     text,
		Metadata: domain.Metadata{Size: size, Origin: origin},
	}, nil
}

// LoadPaths expands globs and loads every supported file, calling progress
// after each one. Unsupported files are skipped.
func (l *Loader) LoadPaths(patterns []string, progress func(path string)) ([]domain.Document, error) {
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if l.Supported(m) {
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no supported documents found")
	}
	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		d, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
		if progress != nil {
			progress(p)
		}
	}
	return docs, nil
}

func (l *Loader) readerFor(name string) reader {
	ext := strings.ToLower(filepath.Ext(name))
	for _, r := range l.readers {
		if r.CanRead(ext) {
			return r
		}
	}
	return nil
}

// DocumentID is the stable identifier of the document loaded from origin.
func DocumentID(origin string) string {
	h := sha1.Sum([]byte(origin))
	return hex.EncodeToString(h[:8])
}
