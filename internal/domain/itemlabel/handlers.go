package itemlabel

import (
	"context"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/domain/forms"
	"erpdesk/pkg/logger"
)

// SyncResultKey is the form result key of the submit-time sync report.
const SyncResultKey = "price_sync"

// Handlers implements the Item Label form events.
type Handlers struct {
	prices PriceStore
	syncer *Syncer
	log    *logger.Logger
}

// NewHandlers creates the event handlers.
func NewHandlers(prices PriceStore, syncer *Syncer, log *logger.Logger) *Handlers {
	return &Handlers{
		prices: prices,
		syncer: syncer,
		log:    log.WithComponent("itemlabel"),
	}
}

// Register binds the handlers. The submit handler is a second registration
// for the label doctype and merges with the first.
func Register(reg *forms.Registry, h *Handlers) {
	reg.On(DocType, forms.Handlers{
		forms.EventRefresh: h.Refresh,
	})
	reg.On(RowDocType, forms.Handlers{
		"item_code": h.ItemCode,
	})
	reg.On(DocType, forms.Handlers{
		forms.EventOnSubmit: h.OnSubmit,
	})
}

// Refresh limits the row price list selector to selling price lists.
// Constraints do not survive a re-render, so this runs on every refresh.
func (h *Handlers) Refresh(_ context.Context, f *forms.Form, _ *forms.RowRef) error {
	f.SetQuery("price_list", ItemsTable, forms.QueryFilters{"selling": 1})
	return nil
}

// ItemCode copies the listed price of the row's item into item_price.
// When no price exists, or the lookup fails, the row is left untouched.
func (h *Handlers) ItemCode(ctx context.Context, f *forms.Form, ref *forms.RowRef) error {
	if ref == nil {
		return apperror.NewValidation("item_code is a row event")
	}
	_, row, ok := f.Doc.FindRow(ref.Name)
	if !ok {
		return apperror.NewNotFound("row", ref.Name)
	}

	priceList, itemCode := row.String("price_list"), row.String("item_code")
	if priceList == "" || itemCode == "" {
		return nil
	}

	log := h.log.WithContext(ctx).With("row", ref.Name, "item_code", itemCode, "price_list", priceList)
	price, err := h.prices.GetPrice(ctx, priceList, itemCode)
	switch {
	case apperror.IsNotFound(err):
		log.Debugw("no item price")
		return nil
	case err != nil:
		log.Warnw("item price lookup failed", "error", err)
		return nil
	case !price.HasRate:
		return nil
	}

	if err := row.Set("item_price", price.Rate); err != nil {
		return err
	}
	f.RefreshField("item_price", ref.Name, ItemsTable)
	return nil
}

// OnSubmit pushes changed row prices back to the price records.
func (h *Handlers) OnSubmit(ctx context.Context, f *forms.Form, _ *forms.RowRef) error {
	report := h.syncer.Sync(ctx, f.Doc)
	f.SetResult(SyncResultKey, report)
	return nil
}
