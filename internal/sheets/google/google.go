package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ricevute/internal/core"
	ports "ricevute/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	merchantSheet string
	productSheet  string
}

// Ensure interface conformance
var _ ports.SummaryWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: MERCHANT_SUMMARY_SHEET (default "Merchants"),
// PRODUCT_SUMMARY_SHEET (default "Products").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	merchantSheet := strings.TrimSpace(os.Getenv("MERCHANT_SUMMARY_SHEET"))
	if merchantSheet == "" {
		merchantSheet = "Merchants"
	}
	productSheet := strings.TrimSpace(os.Getenv("PRODUCT_SUMMARY_SHEET"))
	if productSheet == "" {
		productSheet = "Products"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		merchantSheet: merchantSheet,
		productSheet:  productSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// WriteMerchantSummary replaces the merchant sheet contents with the
// current spend-per-merchant aggregate.
func (c *Client) WriteMerchantSummary(ctx context.Context, summary []core.MerchantSpend) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := [][]any{{"Merchant", "Receipts", "Total Spent", "Updated"}}
	now := time.Now().Format(time.DateOnly)
	for _, s := range summary {
		values = append(values, []any{s.MerchantName, s.Receipts, s.TotalSpent.Dollars(), now})
	}

	if err := c.replaceSheet(ctx, c.merchantSheet, values); err != nil {
		return fmt.Errorf("write merchant summary: %w", err)
	}

	slog.InfoContext(ctx, "Merchant summary exported",
		"sheet", c.merchantSheet, "rows", len(summary))
	return nil
}

// WriteTopProducts replaces the product sheet contents with the current
// purchases-per-product aggregate.
func (c *Client) WriteTopProducts(ctx context.Context, summary []core.ProductPurchases) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := [][]any{{"Product", "Purchases", "Total Spent", "Updated"}}
	now := time.Now().Format(time.DateOnly)
	for _, s := range summary {
		values = append(values, []any{s.ProductDescription, s.Purchases, s.TotalSpent.Dollars(), now})
	}

	if err := c.replaceSheet(ctx, c.productSheet, values); err != nil {
		return fmt.Errorf("write top products: %w", err)
	}

	slog.InfoContext(ctx, "Top products exported",
		"sheet", c.productSheet, "rows", len(summary))
	return nil
}

func (c *Client) replaceSheet(ctx context.Context, sheet string, values [][]any) error {
	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}

	return nil
}
