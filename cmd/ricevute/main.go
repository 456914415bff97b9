package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ricevute/internal/config"
	"ricevute/internal/core"
	"ricevute/internal/export"
	applog "ricevute/internal/log"
	"ricevute/internal/services"
	gsheet "ricevute/internal/sheets/google"
	"ricevute/internal/storage"
)

// batchOutcome collects per-file results across the worker pool.
type batchOutcome struct {
	mu       sync.Mutex
	accepted int
	rejected int
	items    int
	skipped  int
	failures []string
}

func (b *batchOutcome) record(source string, result core.IngestResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if result.Accepted {
		b.accepted++
	} else {
		b.rejected++
		b.failures = append(b.failures, source)
	}
	b.items += result.ItemsInserted
	b.skipped += result.ItemsSkipped
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting ricevute batch ingestion")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	resolver := services.NewIdentityResolver(sqliteRepo)
	ingestor := services.NewReceiptIngestor(sqliteRepo, resolver)
	exporter := export.NewWriter(cfg.ExportDir)

	ctx := context.Background()

	sources, err := discoverReceipts(cfg.ReceiptsDir)
	if err != nil {
		logger.Error("Failed to scan receipts directory", applog.FieldError, err, "dir", cfg.ReceiptsDir)
		os.Exit(1)
	}
	if len(sources) == 0 {
		logger.Info("No receipt files found", "dir", cfg.ReceiptsDir)
	} else {
		logger.Info("Ingesting receipts", "count", len(sources), "workers", cfg.IngestWorkers)
	}

	outcome := &batchOutcome{}

	// Each receipt commits in its own transaction, so one bad file never
	// aborts the batch.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.IngestWorkers)
	for _, source := range sources {
		g.Go(func() error {
			ingestFile(gctx, ingestor, exporter, source, outcome, logger)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Batch ingestion finished",
		"accepted", outcome.accepted,
		"rejected", outcome.rejected,
		applog.FieldItemsInserted, outcome.items,
		applog.FieldItemsSkipped, outcome.skipped)
	for _, source := range outcome.failures {
		logger.Warn("Receipt file rejected", applog.FieldSource, source)
	}

	if err := printSummaries(ctx, sqliteRepo, cfg.TopProductsLimit); err != nil {
		logger.Error("Failed to print summaries", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID != "" {
		if err := exportSummaries(ctx, sqliteRepo, cfg, logger); err != nil {
			logger.Error("Failed to export summaries to Google Sheets", applog.FieldError, err)
			os.Exit(1)
		}
	}
}

// discoverReceipts lists the raw extraction files to ingest, in a stable
// order.
func discoverReceipts(dir string) ([]string, error) {
	sources, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(sources)
	return sources, nil
}

func ingestFile(ctx context.Context, ingestor *services.ReceiptIngestor, exporter *export.Writer, source string, outcome *batchOutcome, logger *applog.Logger) {
	data, err := os.ReadFile(source)
	if err != nil {
		logger.Warn("Failed to read receipt file", applog.FieldSource, source, applog.FieldError, err)
		outcome.record(source, core.IngestResult{})
		return
	}

	var raw core.RawReceipt
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("Failed to parse receipt file", applog.FieldSource, source, applog.FieldError, err)
		outcome.record(source, core.IngestResult{})
		return
	}

	if exporter != nil {
		if _, err := exporter.Write(source, raw); err != nil {
			logger.Warn("Failed to export receipt JSON", applog.FieldSource, source, applog.FieldError, err)
		}
	}

	outcome.record(source, ingestor.Ingest(ctx, raw))
}

// printSummaries renders the spend-per-merchant and top-products aggregates
// to stdout after the batch completes.
func printSummaries(ctx context.Context, repo *storage.SQLiteRepository, topProductsLimit int) error {
	merchants, err := repo.MerchantSummary(ctx)
	if err != nil {
		return fmt.Errorf("merchant summary: %w", err)
	}
	products, err := repo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return fmt.Errorf("top products: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "\nSpend by merchant")
	fmt.Fprintln(w, "MERCHANT\tRECEIPTS\tTOTAL")
	for _, m := range merchants {
		fmt.Fprintf(w, "%s\t%d\t%s\n", m.MerchantName, m.Receipts, m.TotalSpent)
	}

	fmt.Fprintf(w, "\nTop %d products\n", topProductsLimit)
	fmt.Fprintln(w, "PRODUCT\tPURCHASES\tTOTAL")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.ProductDescription, p.Purchases, p.TotalSpent)
	}

	return w.Flush()
}

func exportSummaries(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config, logger *applog.Logger) error {
	sheetsClient, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("initialize sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	merchants, err := repo.MerchantSummary(ctx)
	if err != nil {
		return fmt.Errorf("merchant summary: %w", err)
	}
	if err := sheetsClient.WriteMerchantSummary(ctx, merchants); err != nil {
		return err
	}

	products, err := repo.TopProducts(ctx, cfg.TopProductsLimit)
	if err != nil {
		return fmt.Errorf("top products: %w", err)
	}
	return sheetsClient.WriteTopProducts(ctx, products)
}
