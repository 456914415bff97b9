package services

import (
	"context"
	"strings"
	"time"

	"ricevute/internal/cache"
	"ricevute/internal/core"
	"ricevute/internal/storage"
)

const (
	identityCacheSize = 1024
	identityCacheTTL  = 15 * time.Minute
)

// IdentityResolver maps merchant names and product descriptions to stable
// row ids with get-or-create semantics. A small LRU avoids re-querying the
// same natural keys over and over within a batch; the store's UNIQUE
// constraints stay authoritative.
type IdentityResolver struct {
	storage   *storage.SQLiteRepository
	merchants *cache.LRU[int64]
	products  *cache.LRU[int64]
}

func NewIdentityResolver(st *storage.SQLiteRepository) *IdentityResolver {
	return &IdentityResolver{
		storage:   st,
		merchants: cache.New[int64](identityCacheSize, identityCacheTTL),
		products:  cache.New[int64](identityCacheSize, identityCacheTTL),
	}
}

// ResolveMerchant returns the id for this merchant name, creating the row
// on first sighting. An empty name resolves to nothing without touching
// storage.
func (r *IdentityResolver) ResolveMerchant(ctx context.Context, name, address, phone string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}

	if id, ok := r.merchants.Get(name); ok {
		return id, nil
	}

	id, err := r.storage.GetOrCreateMerchant(ctx, core.Merchant{Name: name, Address: address, Phone: phone})
	if err != nil {
		return 0, err
	}

	r.merchants.Set(name, id)
	return id, nil
}

// ResolveProduct returns the id for this product description, creating the
// row on first sighting.
func (r *IdentityResolver) ResolveProduct(ctx context.Context, description, category string) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, core.ErrEmptyName
	}

	if id, ok := r.products.Get(description); ok {
		return id, nil
	}

	id, err := r.storage.GetOrCreateProduct(ctx, core.Product{Description: description, Category: category})
	if err != nil {
		return 0, err
	}

	r.products.Set(description, id)
	return id, nil
}
