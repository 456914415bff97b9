// Package sheets defines the port for pushing aggregate summaries to an
// external spreadsheet. The pipeline itself never depends on the concrete
// exporter; mains wire one in when configured.
package sheets

import (
	"context"

	"ricevute/internal/core"
)

// SummaryWriter replaces the contents of the summary sheets with fresh
// aggregates after a batch run.
type SummaryWriter interface {
	WriteMerchantSummary(ctx context.Context, summary []core.MerchantSpend) error
	WriteTopProducts(ctx context.Context, summary []core.ProductPurchases) error
}
