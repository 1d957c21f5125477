package itemlabel

import (
	"context"

	"erpdesk/internal/core/types"
)

// PriceStore reads and writes Item Price records on the site.
type PriceStore interface {
	// GetPrice returns the single price of an item in a price list.
	// A missing record is an apperror NOT_FOUND.
	GetPrice(ctx context.Context, priceList, itemCode string) (*Price, error)

	// ListPrices returns the matching prices in site order.
	ListPrices(ctx context.Context, priceList, itemCode string) ([]Price, error)

	SetRate(ctx context.Context, name string, rate types.Money) error

	// CreatePrice inserts a price and returns the new record name.
	CreatePrice(ctx context.Context, priceList, itemCode string, rate types.Money) (string, error)
}

// LabelSource loads Item Label documents from the site as raw JSON.
type LabelSource interface {
	GetDoc(ctx context.Context, doctype, name string) ([]byte, error)
}
