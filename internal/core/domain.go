package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// RawItem is one line item exactly as the extraction service emitted it.
	// Every field is a free-form string and any of them may be empty.
	RawItem struct {
		Description string `json:"Description"`
		Quantity    string `json:"Quantity,omitempty"`
		Price       string `json:"Price,omitempty"`
		TotalPrice  string `json:"TotalPrice,omitempty"`
	}

	// RawReceipt is the untrusted field map produced by the extraction
	// service. The core never talks to that service; its output arrives
	// here as a JSON document or an AMQP message body.
	RawReceipt struct {
		Merchant string    `json:"merchant"`
		Date     string    `json:"date"`
		Items    []RawItem `json:"items"`
		Subtotal string    `json:"subtotal,omitempty"`
		Tax      string    `json:"tax,omitempty"`
		Total    string    `json:"total,omitempty"`
	}

	Merchant struct {
		ID      int64
		Name    string
		Address string
		Phone   string
	}

	Product struct {
		ID          int64
		Description string
		Category    string
	}

	// Receipt is the header row. Subtotal and Tax are nil when the
	// extraction output carried nothing parseable for them.
	Receipt struct {
		ID              int64
		MerchantID      int64
		TransactionDate time.Time
		Subtotal        *Money
		Tax             *Money
		Total           Money
	}

	// ReceiptItem belongs to exactly one Receipt and is only ever written
	// in the same transaction as its header. UnitPrice is nil when it was
	// neither present nor derivable.
	ReceiptItem struct {
		ID         int64
		ReceiptID  int64
		ProductID  int64
		Quantity   float64
		UnitPrice  *Money
		TotalPrice Money
	}

	// IngestResult carries the outcome of one receipt back to the caller
	// instead of printing it. A rejected receipt has written nothing.
	// StorageFailure marks rejections caused by the store rather than the
	// input, so queue consumers know a retry could succeed.
	IngestResult struct {
		Accepted       bool
		ReceiptID      int64
		ItemsInserted  int
		ItemsSkipped   int
		StorageFailure bool
		Diagnostics    []string
	}
)

var (
	ErrMissingMerchant = errors.New("receipt missing merchant name")
	ErrMissingDate     = errors.New("receipt missing valid date")
	ErrMissingTotal    = errors.New("receipt missing total")
	ErrEmptyName       = errors.New("empty natural key")
)

// Validate checks the header-level required fields of a normalized receipt.
func (r Receipt) Validate() error {
	if r.MerchantID == 0 {
		return ErrMissingMerchant
	}
	if r.TransactionDate.IsZero() {
		return ErrMissingDate
	}
	if r.Total.Cents <= 0 {
		return ErrMissingTotal
	}
	return nil
}

// HasDescription reports whether the raw item names a product at all.
// Items without one are dropped silently, matching the extraction
// service's habit of emitting separator rows as empty items.
func (i RawItem) HasDescription() bool {
	return strings.TrimSpace(i.Description) != ""
}
