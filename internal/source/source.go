// Package source adapts raw byte streams — local files, S3 objects,
// newline-delimited JSON, or CSV — into the ordered record iterator the
// reducer consumes.
package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	bqerrors "github.com/kestrel-labs/bqschema/internal/errors"
	"github.com/kestrel-labs/bqschema/internal/ojson"
	"github.com/kestrel-labs/bqschema/internal/storage"
)

// Record pairs a decoded record with its 1-indexed source line, so
// downstream error messages can point back at the offending input.
type Record struct {
	Line  int
	Value interface{}
}

// Reader yields records one at a time. Next returns io.EOF once
// exhausted. A parse failure on one record does not affect subsequent
// calls to Next.
type Reader interface {
	Next() (Record, error)
}

// jsonLinesReader decodes one JSON value per input line.
type jsonLinesReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLines returns a Reader that decodes r as newline-delimited
// JSON, one object per line.
func NewJSONLines(r io.Reader) Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonLinesReader{scanner: scanner}
}

func (jr *jsonLinesReader) Next() (Record, error) {
	for jr.scanner.Scan() {
		jr.line++
		text := jr.scanner.Bytes()
		if len(trimSpace(text)) == 0 {
			continue
		}
		value, err := ojson.DecodeString(string(text))
		if err != nil {
			return Record{Line: jr.line}, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				fmt.Sprintf("line %d: invalid JSON", jr.line), err)
		}
		return Record{Line: jr.line, Value: value}, nil
	}
	if err := jr.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("source: scan failed: %w", err)
	}
	return Record{}, io.EOF
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// csvReader decodes each row as an ojson.Object keyed by the header row.
type csvReader struct {
	reader *csv.Reader
	header []string
	line   int
}

// NewCSV returns a Reader that decodes r as CSV, treating the first row
// as the field-name header.
func NewCSV(r io.Reader) (Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("source: failed to read CSV header: %w", err)
	}
	return &csvReader{reader: cr, header: header, line: 1}, nil
}

func (cr *csvReader) Next() (Record, error) {
	row, err := cr.reader.Read()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	cr.line++
	if err != nil {
		return Record{Line: cr.line}, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
			fmt.Sprintf("line %d: invalid CSV row", cr.line), err)
	}

	obj := make(ojson.Object, 0, len(cr.header))
	for i, col := range cr.header {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		obj = append(obj, ojson.KV{Key: col, Value: cell})
	}
	return Record{Line: cr.line, Value: obj}, nil
}

// Open opens a local file and wraps it in the appropriate Reader given
// format ("json" or "csv"). The caller owns closing the returned
// io.Closer once done reading.
func Open(path, format string) (Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("source: failed to open %s: %w", path, err)
	}
	switch format {
	case "csv":
		r, err := NewCSV(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return r, f, nil
	default:
		return NewJSONLines(f), f, nil
	}
}

// FromObjectStorage downloads objectPath from store into a temp file and
// returns a Reader over it, deferring cleanup to the returned Closer.
func FromObjectStorage(ctx context.Context, store storage.ObjectStorage, objectPath, format string) (Reader, io.Closer, error) {
	tmp, err := os.CreateTemp("", "bqschema-source-*")
	if err != nil {
		return nil, nil, fmt.Errorf("source: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := store.Download(ctx, objectPath, tmpPath); err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("source: failed to download %s: %w", objectPath, err)
	}

	reader, closer, err := Open(tmpPath, format)
	if err != nil {
		os.Remove(tmpPath)
		return nil, nil, err
	}
	return reader, &tempFileCloser{Closer: closer, path: tmpPath}, nil
}

type tempFileCloser struct {
	io.Closer
	path string
}

func (c *tempFileCloser) Close() error {
	err := c.Closer.Close()
	os.Remove(c.path)
	return err
}
