package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"spaar/internal/amqp"
	"spaar/internal/core"
	"spaar/internal/csvimport"
	"spaar/internal/log"
	"spaar/internal/store"
)

// Publisher announces persisted batches. *amqp.Client implements it.
type Publisher interface {
	PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
}

// PublisherFunc adapts a handler so that a batch is processed in-process
// when no broker is configured.
type PublisherFunc func(ctx context.Context, msg *amqp.ImportCompletedMessage) error

func (f PublisherFunc) PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	return f(ctx, msg)
}

// Exporter mirrors imported transactions to an external sheet.
type Exporter interface {
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
}

// ImportOutcome is a persisted import batch.
type ImportOutcome struct {
	BatchID string `json:"batch_id"`
	*csvimport.Result
}

// ImportService parses a statement, persists the valid rows and announces
// the batch. Export and publish are best effort: the batch is stored once
// SaveTransactions succeeds.
type ImportService struct {
	importer   *csvimport.Importer
	store      store.TransactionWriter
	exporter   Exporter
	publisher  Publisher
	timeout    time.Duration
	logger     *log.Logger
	newBatchID func() string
}

type ImportOption func(*ImportService)

func WithExporter(e Exporter) ImportOption {
	return func(s *ImportService) { s.exporter = e }
}

func WithPublisher(p Publisher) ImportOption {
	return func(s *ImportService) { s.publisher = p }
}

// WithImportTimeout bounds a whole batch. Zero disables the bound.
func WithImportTimeout(d time.Duration) ImportOption {
	return func(s *ImportService) { s.timeout = d }
}

func WithBatchIDs(newID func() string) ImportOption {
	return func(s *ImportService) { s.newBatchID = newID }
}

func NewImportService(importer *csvimport.Importer, st store.TransactionWriter, logger *log.Logger, opts ...ImportOption) *ImportService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &ImportService{
		importer:   importer,
		store:      st,
		logger:     logger.WithComponent(log.ComponentImport),
		newBatchID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import runs one batch read from r. source names the upload for logs and
// the completion event.
func (s *ImportService) Import(ctx context.Context, source string, r io.Reader) (*ImportOutcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.importer.Import(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", source, err)
	}

	out := &ImportOutcome{BatchID: s.newBatchID(), Result: res}
	if len(res.Transactions) > 0 {
		if err := s.store.SaveTransactions(ctx, out.BatchID, res.Transactions); err != nil {
			return nil, fmt.Errorf("save batch %s: %w", out.BatchID, err)
		}
	}

	log.NewStructuredLogger(s.logger).LogImportCompleted(ctx, out.BatchID, source,
		res.TotalRows, res.ImportedRows, len(res.Errors), len(res.Warnings))

	if res.ImportedRows == 0 {
		return out, nil
	}

	if s.exporter != nil {
		if err := s.exporter.SaveTransactions(ctx, res.Transactions); err != nil {
			s.logger.ErrorContext(ctx, "Failed to export batch to sheet",
				log.FieldBatchID, out.BatchID,
				log.FieldError, err,
				log.FieldOperation, log.OpAppend)
		}
	}

	if s.publisher != nil {
		msg := amqp.NewImportCompletedMessage(out.BatchID, source, res.TotalRows, res.ImportedRows, len(res.Errors))
		if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish import completed message",
				log.FieldBatchID, out.BatchID,
				log.FieldError, err,
				log.FieldOperation, log.OpPublish)
		}
	} else {
		s.logger.WarnContext(ctx, "No publisher configured, insights will not refresh",
			log.FieldBatchID, out.BatchID)
	}

	return out, nil
}

// Preview parses content without persisting anything.
func (s *ImportService) Preview(content string, limit int) *csvimport.Result {
	return s.importer.Preview(content, limit)
}

func (s *ImportService) Validate(content string) bool {
	return s.importer.ValidateStructure(content)
}
