// Package csvimport turns bank-statement CSV exports into normalized
// transactions. It never talks to a store; callers persist the result.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"spaar/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dialect describes the physical shape of an export.
type Dialect struct {
	Delimiter rune
	HasHeader bool
	Encoding  string
}

// RabobankDialect is the default: semicolon separated, header row, UTF-8.
func RabobankDialect() Dialect {
	return Dialect{Delimiter: ';', HasHeader: true, Encoding: "utf-8"}
}

// Record is one tokenized row and the 1-based physical line it started on.
type Record struct {
	Line   int
	Fields []string
}

// Reader yields records one by one. It is single-pass.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader wraps r according to the dialect and consumes the header row when
// the dialect has one. Failing to read the header is fatal for the batch.
func NewReader(r io.Reader, d Dialect) (*Reader, error) {
	decoded, err := decode(r, d.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(decoded)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	if d.Delimiter != 0 {
		cr.Comma = d.Delimiter
	}
	// Exports pad or truncate trailing columns; missing values resolve to "".
	cr.FieldsPerRecord = -1

	rd := &Reader{csv: cr}
	if d.HasHeader {
		header, err := cr.Read()
		switch {
		case errors.Is(err, io.EOF):
			return rd, nil
		case err != nil:
			return nil, fmt.Errorf("read header: %w", classify(err))
		}
		rd.header = header
	}
	return rd, nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// SupportedEncoding reports whether NewReader can decode name.
func SupportedEncoding(name string) bool {
	_, err := decode(strings.NewReader(""), name)
	return err == nil
}

// Header returns the header row, or nil for headerless dialects and empty input.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next record or io.EOF. A row that cannot be tokenized is
// reported as a *core.RowError wrapping core.ErrMalformedRow; the caller may
// keep calling Next. Any other error is fatal.
func (r *Reader) Next() (Record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, classify(err)
	}
	line, _ := r.csv.FieldPos(0)
	return Record{Line: line, Fields: fields}, nil
}

func classify(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &core.RowError{Line: pe.StartLine, Err: fmt.Errorf("%w: %v", core.ErrMalformedRow, pe.Err)}
	}
	return fmt.Errorf("%w: %v", core.ErrIO, err)
}
