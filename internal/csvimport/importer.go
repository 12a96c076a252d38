package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"spaar/internal/core"
)

const (
	DefaultPreviewLimit = 10

	emptyImportWarning = "no valid transactions found in the CSV file"
)

// Config selects the dialect and rule tables of an import.
type Config struct {
	Dialect        Dialect
	Columns        ColumnMapping
	Rules          *Rules
	AutoCategorize bool
}

// DefaultConfig imports Rabobank exports with the built-in rules.
func DefaultConfig() Config {
	return Config{
		Dialect:        RabobankDialect(),
		Columns:        DefaultColumns(),
		Rules:          DefaultRules(),
		AutoCategorize: true,
	}
}

// Result is the outcome of one batch. Row-level failures land in Errors and
// never abort the batch.
type Result struct {
	Transactions []core.Transaction `json:"transactions"`
	Errors       []string           `json:"errors"`
	Warnings     []string           `json:"warnings"`
	TotalRows    int                `json:"total_rows"`
	ImportedRows int                `json:"imported_rows"`
}

// Importer is safe for concurrent use; each call keeps its own state.
type Importer struct {
	cfg         Config
	categorizer *Categorizer
	now         func() time.Time
	newID       func() string
}

type Option func(*Importer)

// WithClock overrides the CreatedAt timestamp source.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// WithIDs overrides transaction id generation.
func WithIDs(newID func() string) Option {
	return func(im *Importer) { im.newID = newID }
}

func New(cfg Config, opts ...Option) *Importer {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.Columns == nil {
		cfg.Columns = DefaultColumns()
	}
	im := &Importer{
		cfg:         cfg,
		categorizer: NewCategorizer(cfg.Rules.Categories),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Categorizer exposes the categorizer built from the configured rules.
func (im *Importer) Categorizer() *Categorizer {
	return im.categorizer
}

// Import reads the whole source. It only returns an error when the batch
// cannot be read at all (core.ErrIO, unreadable header, cancelled context).
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	rd, err := NewReader(r, im.cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var resolver Resolver
	if im.cfg.Dialect.HasHeader {
		resolver = NewHeaderResolver(rd.Header(), im.cfg.Rules.Synonyms)
	} else {
		resolver = NewColumnResolver(im.cfg.Columns)
	}
	norm := &normalizer{rules: im.cfg.Rules, resolver: resolver}

	res := &Result{
		Transactions: []core.Transaction{},
		Errors:       []string{},
		Warnings:     []string{},
	}
	seen := dedupSet{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr *core.RowError
			if !errors.As(err, &rowErr) {
				return nil, err
			}
			res.TotalRows++
			res.Errors = append(res.Errors, rowErr.Error())
			continue
		}
		res.TotalRows++

		tx, err := norm.normalize(rec)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		tx.ID = im.newID()
		tx.CreatedAt = im.now()
		if im.cfg.AutoCategorize {
			tx.CategoryID = im.categorizer.Categorize(tx.Description)
		}

		if seen.seen(tx) {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"possible duplicate on line %d: %s (%s: %s)",
				rec.Line, tx.Description, tx.Date.Format("02-01-2006"), tx.Amount.String(),
			))
		}
		res.Transactions = append(res.Transactions, tx)
	}

	res.ImportedRows = len(res.Transactions)
	if res.ImportedRows == 0 {
		res.Warnings = append(res.Warnings, emptyImportWarning)
	}
	return res, nil
}

// Parse imports in-memory content. Fatal failures are reported in Errors.
func (im *Importer) Parse(content string) *Result {
	res, err := im.Import(context.Background(), strings.NewReader(content))
	if err != nil {
		return &Result{
			Transactions: []core.Transaction{},
			Errors:       []string{err.Error()},
			Warnings:     []string{emptyImportWarning},
		}
	}
	return res
}

// Preview parses content and keeps only the first limit transactions. The
// counters still describe the whole content.
func (im *Importer) Preview(content string, limit int) *Result {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	res := im.Parse(content)
	if len(res.Transactions) > limit {
		res.Transactions = res.Transactions[:limit]
	}
	return res
}

// ValidateStructure reports whether content starts with a header carrying
// every required column.
func (im *Importer) ValidateStructure(content string) bool {
	d := im.cfg.Dialect
	d.HasHeader = true
	rd, err := NewReader(strings.NewReader(content), d)
	if err != nil || rd.Header() == nil {
		return false
	}
	return ValidateStructure(rd.Header(), im.cfg.Rules.RequiredHeaders)
}
