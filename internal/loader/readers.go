package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/xuri/excelize/v2"
)

// reader extracts plain text from one family of file formats.
type reader interface {
	CanRead(ext string) bool
	ReadText(name string, r io.Reader) (string, error)
}

type textReader struct{}

func (textReader) CanRead(ext string) bool { return ext == ".txt" || ext == ".md" }

func (textReader) ReadText(_ string, r io.Reader) (string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return string(buf), nil
}

// docReader covers the office and PDF formats docconv understands. PDF pages
// come back separated by form feeds, which the word chunker turns into page
// hints.
type docReader struct{}

func (docReader) CanRead(ext string) bool {
	switch ext {
	case ".pdf", ".docx", ".odt", ".rtf", ".doc", ".pages":
		return true
	}
	return false
}

func (docReader) ReadText(name string, r io.Reader) (string, error) {
	res, err := docconv.Convert(r, docconv.MimeTypeByExtension(name), false)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return res.Body, nil
}

// csvReader flattens rows into lines of space separated cells.
type csvReader struct{}

func (csvReader) CanRead(ext string) bool { return ext == ".csv" }

func (csvReader) ReadText(_ string, r io.Reader) (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	var b strings.Builder
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return b.String(), fmt.Errorf("reading csv: %w", err)
		}
		writeRow(&b, rec)
	}
	return b.String(), nil
}

// xlsxReader emits every sheet as its name followed by its rows.
type xlsxReader struct{}

func (xlsxReader) CanRead(ext string) bool { return ext == ".xlsx" || ext == ".xlsm" }

func (xlsxReader) ReadText(_ string, r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		b.WriteString(sheet)
		b.WriteByte('\n')
		for _, row := range rows {
			writeRow(&b, row)
		}
	}
	return b.String(), nil
}

func writeRow(w io.StringWriter, cells []string) {
	first := true
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !first {
			_, _ = w.WriteString(" ")
		}
		_, _ = w.WriteString(c)
		first = false
	}
	if !first {
		_, _ = w.WriteString("\n")
	}
}
