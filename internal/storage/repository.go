package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ricevute/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups when no row matches the natural key.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection keeps
	// concurrent ingests queued instead of fighting over the write lock.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetMerchantByName looks up a merchant by its exact name.
func (r *SQLiteRepository) GetMerchantByName(ctx context.Context, name string) (*core.Merchant, error) {
	var (
		m       core.Merchant
		address sql.NullString
		phone   sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT merchant_id, merchant_name, address, phone_number FROM merchant WHERE merchant_name = ?`,
		name,
	).Scan(&m.ID, &m.Name, &address, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant by name: %w", err)
	}
	m.Address = address.String
	m.Phone = phone.String
	return &m, nil
}

// GetOrCreateMerchant returns the id for the merchant with this exact name,
// inserting it on first sighting. A concurrent insert of the same name loses
// the UNIQUE race and falls back to the lookup, so repeated resolution of one
// name always converges on a single row.
func (r *SQLiteRepository) GetOrCreateMerchant(ctx context.Context, m core.Merchant) (int64, error) {
	existing, err := r.GetMerchantByName(ctx, m.Name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO merchant (merchant_name, address, phone_number) VALUES (?, ?, ?) RETURNING merchant_id`,
		m.Name, nullString(m.Address), nullString(m.Phone),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetMerchantByName(ctx, m.Name)
			if lookupErr != nil {
				return 0, fmt.Errorf("merchant lost insert race and lookup failed: %w", lookupErr)
			}
			return existing.ID, nil
		}
		return 0, fmt.Errorf("insert merchant: %w", err)
	}

	slog.InfoContext(ctx, "Created merchant", "merchant_id", id, "merchant_name", m.Name)
	return id, nil
}

// GetProductByDescription looks up a product by its exact description.
func (r *SQLiteRepository) GetProductByDescription(ctx context.Context, description string) (*core.Product, error) {
	var (
		p        core.Product
		category sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT product_id, product_description, category FROM product WHERE product_description = ?`,
		description,
	).Scan(&p.ID, &p.Description, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by description: %w", err)
	}
	p.Category = category.String
	return &p, nil
}

// GetOrCreateProduct mirrors GetOrCreateMerchant, keyed on the description.
func (r *SQLiteRepository) GetOrCreateProduct(ctx context.Context, p core.Product) (int64, error) {
	existing, err := r.GetProductByDescription(ctx, p.Description)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO product (product_description, category) VALUES (?, ?) RETURNING product_id`,
		p.Description, nullString(p.Category),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetProductByDescription(ctx, p.Description)
			if lookupErr != nil {
				return 0, fmt.Errorf("product lost insert race and lookup failed: %w", lookupErr)
			}
			return existing.ID, nil
		}
		return 0, fmt.Errorf("insert product: %w", err)
	}

	return id, nil
}

// SaveReceipt writes the header and all of its items in one transaction.
// Either everything lands or nothing does; a mid-item failure rolls the
// header back too.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, receipt core.Receipt, items []core.ReceiptItem) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var receiptID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO receipt (merchant_id, transaction_date, subtotal, tax, total)
		 VALUES (?, ?, ?, ?, ?) RETURNING receipt_id`,
		receipt.MerchantID,
		receipt.TransactionDate.Format(time.DateOnly),
		nullCents(receipt.Subtotal),
		nullCents(receipt.Tax),
		receipt.Total.Cents,
	).Scan(&receiptID)
	if err != nil {
		return 0, fmt.Errorf("insert receipt: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_item (receipt_id, product_id, quantity, unit_price, total_price)
			 VALUES (?, ?, ?, ?, ?)`,
			receiptID,
			item.ProductID,
			item.Quantity,
			nullCents(item.UnitPrice),
			item.TotalPrice.Cents,
		)
		if err != nil {
			return 0, fmt.Errorf("insert receipt item (product %d): %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit receipt: %w", err)
	}

	return receiptID, nil
}

// GetReceipt retrieves one receipt header by id.
func (r *SQLiteRepository) GetReceipt(ctx context.Context, id int64) (*core.Receipt, error) {
	var (
		rc       core.Receipt
		date     string
		subtotal sql.NullInt64
		tax      sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT receipt_id, merchant_id, transaction_date, subtotal, tax, total FROM receipt WHERE receipt_id = ?`,
		id,
	).Scan(&rc.ID, &rc.MerchantID, &date, &subtotal, &tax, &rc.Total.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	rc.TransactionDate, err = time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("parse stored transaction date %q: %w", date, err)
	}
	if subtotal.Valid {
		rc.Subtotal = &core.Money{Cents: subtotal.Int64}
	}
	if tax.Valid {
		rc.Tax = &core.Money{Cents: tax.Int64}
	}
	return &rc, nil
}

// GetReceiptItems retrieves the line items of one receipt.
func (r *SQLiteRepository) GetReceiptItems(ctx context.Context, receiptID int64) ([]core.ReceiptItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT receipt_item_id, receipt_id, product_id, quantity, unit_price, total_price
		 FROM receipt_item WHERE receipt_id = ? ORDER BY receipt_item_id`,
		receiptID)
	if err != nil {
		return nil, fmt.Errorf("get receipt items: %w", err)
	}
	defer rows.Close()

	var items []core.ReceiptItem
	for rows.Next() {
		var (
			item      core.ReceiptItem
			unitPrice sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.ReceiptID, &item.ProductID, &item.Quantity, &unitPrice, &item.TotalPrice.Cents); err != nil {
			return nil, fmt.Errorf("scan receipt item: %w", err)
		}
		if unitPrice.Valid {
			item.UnitPrice = &core.Money{Cents: unitPrice.Int64}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipt items: %w", err)
	}
	return items, nil
}

// CountRows returns the row count of one of the schema tables. Used by
// callers reporting on batch outcomes and by tests asserting atomicity.
func (r *SQLiteRepository) CountRows(ctx context.Context, table string) (int64, error) {
	switch table {
	case "merchant", "product", "receipt", "receipt_item":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", table, err)
	}
	return n, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullCents(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
