package core

// MerchantSpend aggregates receipts for one merchant.
type MerchantSpend struct {
	MerchantName string
	Receipts     int64
	TotalSpent   Money
}

// ProductPurchases aggregates line items for one product.
type ProductPurchases struct {
	ProductDescription string
	Purchases          int64
	TotalSpent         Money
}
