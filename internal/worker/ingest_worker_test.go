package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ricevute/internal/amqp"
	"ricevute/internal/core"
	"ricevute/internal/export"
	"ricevute/internal/services"
	"ricevute/internal/storage"
)

func newTestWorker(t *testing.T) (*IngestWorker, *storage.SQLiteRepository, string) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ricevute.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	exportDir := t.TempDir()
	ingestor := services.NewReceiptIngestor(repo, services.NewIdentityResolver(repo))
	return NewIngestWorker(ingestor, export.NewWriter(exportDir)), repo, exportDir
}

func extractedMessage() *amqp.ReceiptExtractedMessage {
	return amqp.NewReceiptExtractedMessage("data/receipts/0.jpg", core.RawReceipt{
		Merchant: "TRADER JOE'S",
		Date:     "06-28-2014",
		Total:    "$38.68",
		Items: []core.RawItem{
			{Description: "BANANAS", TotalPrice: "0.99"},
		},
	})
}

func TestHandleReceiptMessage_IngestsAndExports(t *testing.T) {
	w, repo, exportDir := newTestWorker(t)
	ctx := context.Background()

	if err := w.HandleReceiptMessage(ctx, extractedMessage()); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	receipts, err := repo.CountRows(ctx, "receipt")
	if err != nil {
		t.Fatalf("count receipts: %v", err)
	}
	if receipts != 1 {
		t.Errorf("receipt rows = %d, want 1", receipts)
	}

	if _, err := os.Stat(filepath.Join(exportDir, "0_output.json")); err != nil {
		t.Errorf("expected export dump: %v", err)
	}
}

func TestHandleReceiptMessage_BadPayloadIsNotRetried(t *testing.T) {
	w, repo, _ := newTestWorker(t)
	ctx := context.Background()

	msg := extractedMessage()
	msg.Receipt.Total = "" // rejected at validation, retrying cannot help

	if err := w.HandleReceiptMessage(ctx, msg); err != nil {
		t.Fatalf("bad payload should be acknowledged, got %v", err)
	}

	receipts, err := repo.CountRows(ctx, "receipt")
	if err != nil {
		t.Fatalf("count receipts: %v", err)
	}
	if receipts != 0 {
		t.Errorf("receipt rows = %d, want 0", receipts)
	}
}

func TestHandleReceiptMessage_StorageFailureIsRetried(t *testing.T) {
	w, repo, _ := newTestWorker(t)
	ctx := context.Background()

	// Warm the resolver caches so the next attempt fails at the
	// transactional save rather than at merchant resolution.
	if err := w.HandleReceiptMessage(ctx, extractedMessage()); err != nil {
		t.Fatalf("priming message: %v", err)
	}
	repo.Close()

	if err := w.HandleReceiptMessage(ctx, extractedMessage()); err == nil {
		t.Error("expected an error so the delivery gets requeued")
	}
}
