package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ricevute/internal/core"
	"ricevute/internal/storage"
)

// ReceiptIngestor turns one raw extraction field map into committed rows.
// Header-level problems reject the whole receipt before anything is
// written; item-level problems only shrink the item list.
type ReceiptIngestor struct {
	storage  *storage.SQLiteRepository
	resolver *IdentityResolver
}

func NewReceiptIngestor(st *storage.SQLiteRepository, resolver *IdentityResolver) *ReceiptIngestor {
	return &ReceiptIngestor{storage: st, resolver: resolver}
}

// Ingest validates, normalizes and persists a single receipt. The header
// and all accepted items commit in one transaction; any storage failure
// there rolls everything back. The result carries counts and diagnostics
// instead of printing them, so a batch driver can aggregate outcomes.
func (s *ReceiptIngestor) Ingest(ctx context.Context, raw core.RawReceipt) core.IngestResult {
	result := core.IngestResult{}

	merchantName := strings.TrimSpace(raw.Merchant)
	if merchantName == "" {
		return reject(ctx, result, "missing merchant name")
	}

	date, ok := core.ParseDate(raw.Date)
	if !ok {
		return reject(ctx, result, fmt.Sprintf("missing or unparsable date %q", raw.Date))
	}

	total, ok := core.ParsePrice(raw.Total)
	if !ok {
		return reject(ctx, result, fmt.Sprintf("missing or unparsable total %q", raw.Total))
	}

	merchantID, err := s.resolver.ResolveMerchant(ctx, merchantName, "", "")
	if err != nil {
		result.StorageFailure = true
		return reject(ctx, result, fmt.Sprintf("resolve merchant %q: %v", merchantName, err))
	}

	receipt := core.Receipt{
		MerchantID:      merchantID,
		TransactionDate: date,
		Total:           total,
	}
	if subtotal, ok := core.ParsePrice(raw.Subtotal); ok {
		receipt.Subtotal = &subtotal
	}
	if tax, ok := core.ParsePrice(raw.Tax); ok {
		receipt.Tax = &tax
	}

	items := s.normalizeItems(ctx, raw.Items, &result)

	receiptID, err := s.storage.SaveReceipt(ctx, receipt, items)
	if err != nil {
		result.ItemsInserted = 0
		result.StorageFailure = true
		return reject(ctx, result, fmt.Sprintf("save receipt: %v", err))
	}

	result.Accepted = true
	result.ReceiptID = receiptID
	slog.InfoContext(ctx, "Receipt ingested",
		"receipt_id", receiptID,
		"merchant", merchantName,
		"transaction_date", raw.Date,
		"total_cents", total.Cents,
		"items_inserted", result.ItemsInserted,
		"items_skipped", result.ItemsSkipped)
	return result
}

// normalizeItems converts raw line items to typed ones and resolves their
// product ids. Unusable items are skipped with a diagnostic, never an
// error: a receipt with bad lines still commits with the lines it has.
func (s *ReceiptIngestor) normalizeItems(ctx context.Context, raw []core.RawItem, result *core.IngestResult) []core.ReceiptItem {
	var items []core.ReceiptItem
	for _, ri := range raw {
		if !ri.HasDescription() {
			result.ItemsSkipped++
			continue
		}

		totalPrice, ok := core.ParsePrice(ri.TotalPrice)
		if !ok {
			result.ItemsSkipped++
			result.Diagnostics = append(result.Diagnostics,
				fmt.Sprintf("item %q has no recoverable total price", ri.Description))
			continue
		}

		quantity, quantityKnown := core.ParseQuantity(ri.Quantity)

		var unitPrice *core.Money
		if price, ok := core.ParsePrice(ri.Price); ok {
			unitPrice = &price
		} else if quantityKnown && quantity != 0 {
			// Back-derive from the line total. Only an originally
			// present quantity participates; the default below never
			// feeds this division.
			derived := totalPrice.DividedBy(quantity)
			unitPrice = &derived
		}
		if !quantityKnown || quantity == 0 {
			quantity = 1
		}

		productID, err := s.resolver.ResolveProduct(ctx, ri.Description, "")
		if err != nil {
			result.ItemsSkipped++
			result.Diagnostics = append(result.Diagnostics,
				fmt.Sprintf("resolve product %q: %v", ri.Description, err))
			slog.WarnContext(ctx, "Skipping item, product resolution failed",
				"description", ri.Description, "error", err)
			continue
		}

		items = append(items, core.ReceiptItem{
			ProductID:  productID,
			Quantity:   quantity,
			UnitPrice:  unitPrice,
			TotalPrice: totalPrice,
		})
		result.ItemsInserted++
	}
	return items
}

func reject(ctx context.Context, result core.IngestResult, diagnostic string) core.IngestResult {
	result.Accepted = false
	result.Diagnostics = append(result.Diagnostics, diagnostic)
	slog.WarnContext(ctx, "Receipt rejected", "reason", diagnostic)
	return result
}
