package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldSource        = "source"
	FieldMerchant      = "merchant"
	FieldMerchantID    = "merchant_id"
	FieldProduct       = "product_description"
	FieldProductID     = "product_id"
	FieldReceiptID     = "receipt_id"
	FieldDate          = "transaction_date"
	FieldTotalCents    = "total_cents"
	FieldItemsInserted = "items_inserted"
	FieldItemsSkipped  = "items_skipped"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentIngest   = "ingest"
	ComponentResolver = "resolver"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
)
