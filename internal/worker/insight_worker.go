package worker

import (
	"context"
	"fmt"

	"spaar/internal/amqp"
	"spaar/internal/core"
	"spaar/internal/log"
)

// Refresher regenerates the stored insights. *services.InsightService
// implements it.
type Refresher interface {
	Refresh(ctx context.Context) ([]core.FinancialInsight, error)
}

// InsightWorker reacts to completed imports by refreshing insights.
type InsightWorker struct {
	refresher Refresher
	logger    *log.Logger
}

func NewInsightWorker(refresher Refresher, logger *log.Logger) *InsightWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightWorker{
		refresher: refresher,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleImportCompleted processes one import completed message. Returning
// an error requeues the message.
func (w *InsightWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	w.logger.InfoContext(ctx, "Processing import completed message",
		log.FieldBatchID, msg.BatchID,
		log.FieldSource, msg.Source,
		log.FieldImported, msg.ImportedRows)

	if msg.ImportedRows == 0 {
		w.logger.InfoContext(ctx, "Batch imported nothing, skipping refresh",
			log.FieldBatchID, msg.BatchID)
		return nil
	}

	generated, err := w.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh insights for batch %s: %w", msg.BatchID, err)
	}

	w.logger.InfoContext(ctx, "Insights refreshed after import",
		log.FieldBatchID, msg.BatchID,
		log.FieldInsightCount, len(generated))
	return nil
}

// StartupRefresh regenerates insights once when the worker starts so that
// batches imported while it was down are covered.
func (w *InsightWorker) StartupRefresh(ctx context.Context) error {
	generated, err := w.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("startup refresh: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup refresh completed",
		log.FieldInsightCount, len(generated),
		log.FieldOperation, log.OpStartup)
	return nil
}
