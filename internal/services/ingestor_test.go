package services

import (
	"context"
	"path/filepath"
	"testing"

	"ricevute/internal/core"
	"ricevute/internal/storage"
)

func newTestIngestor(t *testing.T) (*ReceiptIngestor, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ricevute.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewReceiptIngestor(repo, NewIdentityResolver(repo)), repo
}

func traderJoes() core.RawReceipt {
	return core.RawReceipt{
		Merchant: "TRADER JOE'S",
		Date:     "06-28-2014",
		Subtotal: "$38.68",
		Total:    "$38.68",
		Items: []core.RawItem{
			{Description: "BANANAS", TotalPrice: "0.99"},
			{Description: "MILK", Quantity: "2", TotalPrice: "4.00"},
		},
	}
}

func mustCount(t *testing.T, repo *storage.SQLiteRepository, table string) int64 {
	t.Helper()
	n, err := repo.CountRows(context.Background(), table)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestIngest_AcceptsCompleteReceipt(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	result := ingestor.Ingest(ctx, traderJoes())
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}
	if result.ItemsInserted != 2 || result.ItemsSkipped != 0 {
		t.Errorf("items inserted/skipped = %d/%d, want 2/0", result.ItemsInserted, result.ItemsSkipped)
	}

	if n := mustCount(t, repo, "merchant"); n != 1 {
		t.Errorf("merchant rows = %d, want 1", n)
	}
	if n := mustCount(t, repo, "receipt"); n != 1 {
		t.Errorf("receipt rows = %d, want 1", n)
	}
	if n := mustCount(t, repo, "receipt_item"); n != 2 {
		t.Errorf("receipt_item rows = %d, want 2", n)
	}

	header, err := repo.GetReceipt(ctx, result.ReceiptID)
	if err != nil {
		t.Fatalf("read back header: %v", err)
	}
	if header.Total.Cents != 3868 {
		t.Errorf("total = %d cents, want 3868", header.Total.Cents)
	}
	if header.Subtotal == nil || header.Subtotal.Cents != 3868 {
		t.Errorf("subtotal = %v, want 3868 cents", header.Subtotal)
	}
	if header.Tax != nil {
		t.Errorf("tax = %v, want unset", header.Tax)
	}
}

func TestIngest_SecondReceiptReusesMerchant(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	first := ingestor.Ingest(ctx, traderJoes())
	second := ingestor.Ingest(ctx, traderJoes())
	if !first.Accepted || !second.Accepted {
		t.Fatalf("expected both receipts accepted: %v / %v", first.Diagnostics, second.Diagnostics)
	}

	if n := mustCount(t, repo, "merchant"); n != 1 {
		t.Errorf("merchant rows after two ingests = %d, want 1", n)
	}
	if n := mustCount(t, repo, "receipt"); n != 2 {
		t.Errorf("receipt rows = %d, want 2", n)
	}
	// Products repeat too; resolution must not duplicate them either.
	if n := mustCount(t, repo, "product"); n != 2 {
		t.Errorf("product rows = %d, want 2", n)
	}
}

func TestIngest_QuantityDefaultsWithoutDerivation(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	raw := traderJoes()
	raw.Items = []core.RawItem{{Description: "BANANAS", TotalPrice: "0.99"}}

	result := ingestor.Ingest(ctx, raw)
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}

	items, err := repo.GetReceiptItems(ctx, result.ReceiptID)
	if err != nil {
		t.Fatalf("read back items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Quantity != 1 {
		t.Errorf("quantity = %v, want 1 (defaulted)", items[0].Quantity)
	}
	// Quantity was absent, so the default must not feed unit price derivation.
	if items[0].UnitPrice != nil {
		t.Errorf("unit price = %v, want unset", items[0].UnitPrice)
	}
	if items[0].TotalPrice.Cents != 99 {
		t.Errorf("total price = %d cents, want 99", items[0].TotalPrice.Cents)
	}
}

func TestIngest_DerivesUnitPriceFromQuantity(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	raw := traderJoes()
	raw.Items = []core.RawItem{{Description: "MILK", Quantity: "2", TotalPrice: "4.00"}}

	result := ingestor.Ingest(ctx, raw)
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}

	items, err := repo.GetReceiptItems(ctx, result.ReceiptID)
	if err != nil {
		t.Fatalf("read back items: %v", err)
	}
	if items[0].UnitPrice == nil || items[0].UnitPrice.Cents != 200 {
		t.Errorf("unit price = %v, want 200 cents", items[0].UnitPrice)
	}
	if items[0].Quantity != 2 {
		t.Errorf("quantity = %v, want 2", items[0].Quantity)
	}
}

func TestIngest_ExplicitUnitPriceWins(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	raw := traderJoes()
	raw.Items = []core.RawItem{{Description: "APPLES", Quantity: "3EA", Price: "0.29/EA", TotalPrice: "$0.87"}}

	result := ingestor.Ingest(ctx, raw)
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}

	items, err := repo.GetReceiptItems(ctx, result.ReceiptID)
	if err != nil {
		t.Fatalf("read back items: %v", err)
	}
	if items[0].UnitPrice == nil || items[0].UnitPrice.Cents != 29 {
		t.Errorf("unit price = %v, want 29 cents from the extracted field", items[0].UnitPrice)
	}
	if items[0].Quantity != 3 {
		t.Errorf("quantity = %v, want 3", items[0].Quantity)
	}
}

func TestIngest_SkipsUnusableItems(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	raw := traderJoes()
	raw.Items = []core.RawItem{
		{Description: "", TotalPrice: "1.00"},          // no description
		{Description: "MYSTERY", TotalPrice: ""},       // no total price
		{Description: "GRANOLA", TotalPrice: "$4.49"},  // fine
		{Description: "STICKER", TotalPrice: "N/A"},    // unparsable total
	}

	result := ingestor.Ingest(ctx, raw)
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}
	if result.ItemsInserted != 1 {
		t.Errorf("items inserted = %d, want 1", result.ItemsInserted)
	}
	if result.ItemsSkipped != 3 {
		t.Errorf("items skipped = %d, want 3", result.ItemsSkipped)
	}
	if n := mustCount(t, repo, "receipt_item"); n != 1 {
		t.Errorf("receipt_item rows = %d, want 1", n)
	}
}

func TestIngest_EmptyItemListStillCommitsHeader(t *testing.T) {
	ingestor, repo := newTestIngestor(t)

	raw := traderJoes()
	raw.Items = nil

	result := ingestor.Ingest(context.Background(), raw)
	if !result.Accepted {
		t.Fatalf("receipt rejected: %v", result.Diagnostics)
	}
	if result.ItemsInserted != 0 {
		t.Errorf("items inserted = %d, want 0", result.ItemsInserted)
	}
	if n := mustCount(t, repo, "receipt"); n != 1 {
		t.Errorf("receipt rows = %d, want 1", n)
	}
}

func TestIngest_RejectsMissingHeaderFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.RawReceipt)
	}{
		{"missing merchant", func(r *core.RawReceipt) { r.Merchant = "" }},
		{"unparsable date", func(r *core.RawReceipt) { r.Date = "N/A" }},
		{"missing date", func(r *core.RawReceipt) { r.Date = "" }},
		{"missing total", func(r *core.RawReceipt) { r.Total = "" }},
		{"unparsable total", func(r *core.RawReceipt) { r.Total = "FREE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestor, repo := newTestIngestor(t)

			raw := traderJoes()
			tt.mutate(&raw)

			result := ingestor.Ingest(context.Background(), raw)
			if result.Accepted {
				t.Fatal("expected receipt to be rejected")
			}
			if len(result.Diagnostics) == 0 {
				t.Error("expected a diagnostic naming the problem")
			}

			// Nothing may have been written, not even the header.
			for _, table := range []string{"merchant", "product", "receipt", "receipt_item"} {
				if n := mustCount(t, repo, table); n != 0 {
					t.Errorf("%s rows = %d, want 0", table, n)
				}
			}
		})
	}
}

func TestIngest_StorageFailureRollsBackReceipt(t *testing.T) {
	ingestor, repo := newTestIngestor(t)
	ctx := context.Background()

	// A successful ingest warms the resolver caches, so a second attempt
	// reaches the transactional save even after the connection is closed
	// underneath it. The save must fail and report nothing inserted.
	if first := ingestor.Ingest(ctx, traderJoes()); !first.Accepted {
		t.Fatalf("priming ingest rejected: %v", first.Diagnostics)
	}
	repo.Close()

	result := ingestor.Ingest(ctx, traderJoes())
	if result.Accepted {
		t.Fatal("expected ingestion to fail on closed storage")
	}
	if result.ItemsInserted != 0 {
		t.Errorf("items inserted = %d, want 0 after failure", result.ItemsInserted)
	}
}
