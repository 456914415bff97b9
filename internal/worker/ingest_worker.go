package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ricevute/internal/amqp"
	"ricevute/internal/core"
	"ricevute/internal/export"
	"ricevute/internal/services"
)

// IngestWorker handles extracted-receipt messages from the queue: dump the
// raw field map for inspection, then run it through the ingestor.
type IngestWorker struct {
	ingestor *services.ReceiptIngestor
	exporter *export.Writer
}

// NewIngestWorker creates a worker. exporter may be nil to disable the
// JSON side channel.
func NewIngestWorker(ingestor *services.ReceiptIngestor, exporter *export.Writer) *IngestWorker {
	return &IngestWorker{
		ingestor: ingestor,
		exporter: exporter,
	}
}

// HandleReceiptMessage processes one message. A returned error means the
// delivery should be retried (storage trouble); rejections caused by the
// payload itself are acknowledged, since requeueing bad data cannot fix it.
func (w *IngestWorker) HandleReceiptMessage(ctx context.Context, msg *amqp.ReceiptExtractedMessage) error {
	slog.InfoContext(ctx, "Processing extracted receipt",
		"source", msg.Source,
		"merchant", msg.Receipt.Merchant)

	if w.exporter != nil {
		if path, err := w.exporter.Write(msg.Source, msg.Receipt); err != nil {
			// Side channel only; ingestion proceeds without it.
			slog.WarnContext(ctx, "Failed to export receipt JSON", "source", msg.Source, "error", err)
		} else {
			slog.DebugContext(ctx, "Exported receipt JSON", "path", path)
		}
	}

	result := w.ingestor.Ingest(ctx, msg.Receipt)
	if !result.Accepted {
		if result.StorageFailure {
			return fmt.Errorf("ingest %s: %v", msg.Source, result.Diagnostics)
		}
		slog.WarnContext(ctx, "Receipt rejected, dropping message",
			"source", msg.Source,
			"diagnostics", result.Diagnostics)
		return nil
	}

	logIngested(ctx, msg.Source, result)
	return nil
}

func logIngested(ctx context.Context, source string, result core.IngestResult) {
	slog.InfoContext(ctx, "Receipt committed",
		"source", source,
		"receipt_id", result.ReceiptID,
		"items_inserted", result.ItemsInserted,
		"items_skipped", result.ItemsSkipped)
}
