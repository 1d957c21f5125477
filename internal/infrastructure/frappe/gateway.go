package frappe

import (
	"context"
	"net/http"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/domain/reports"
)

var (
	_ reports.Runner        = (*Client)(nil)
	_ reports.ValueGetter   = (*ValueReader)(nil)
	_ itemlabel.PriceStore  = (*PriceStore)(nil)
	_ itemlabel.LabelSource = (*Client)(nil)
)

// ValueReader reads single field values.
type ValueReader struct {
	client *Client
}

// NewValueReader creates a ValueReader over client.
func NewValueReader(client *Client) *ValueReader {
	return &ValueReader{client: client}
}

// GetValue implements reports.ValueGetter.
func (v *ValueReader) GetValue(ctx context.Context, doctype, name, fieldname string) (string, error) {
	rec, err := v.client.GetValue(ctx, doctype, name, fieldname)
	if err != nil {
		return "", err
	}
	return rec.String(fieldname), nil
}

// PriceStore reads and writes Item Price records.
type PriceStore struct {
	client *Client
}

// NewPriceStore creates a PriceStore over client.
func NewPriceStore(client *Client) *PriceStore {
	return &PriceStore{client: client}
}

// GetPrice implements itemlabel.PriceStore.
func (s *PriceStore) GetPrice(ctx context.Context, priceList, itemCode string) (*itemlabel.Price, error) {
	rec, err := s.client.Get(ctx, itemlabel.PriceDocType, map[string]any{
		"price_list": priceList,
		"item_code":  itemCode,
	})
	if err != nil {
		return nil, err
	}
	p, err := toPrice(rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrices implements itemlabel.PriceStore.
func (s *PriceStore) ListPrices(ctx context.Context, priceList, itemCode string) ([]itemlabel.Price, error) {
	recs, err := s.client.GetList(ctx, itemlabel.PriceDocType, map[string]any{
		"price_list": priceList,
		"item_code":  itemCode,
	}, []string{"name", "price_list", "item_code", "price_list_rate"}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]itemlabel.Price, 0, len(recs))
	for _, rec := range recs {
		p, err := toPrice(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SetRate implements itemlabel.PriceStore.
func (s *PriceStore) SetRate(ctx context.Context, name string, rate types.Money) error {
	_, err := s.client.SetValue(ctx, itemlabel.PriceDocType, name, "price_list_rate", rate)
	return err
}

// CreatePrice implements itemlabel.PriceStore.
func (s *PriceStore) CreatePrice(ctx context.Context, priceList, itemCode string, rate types.Money) (string, error) {
	rec, err := s.client.Insert(ctx, Record{
		"doctype":         itemlabel.PriceDocType,
		"price_list":      priceList,
		"item_code":       itemCode,
		"price_list_rate": rate,
	})
	if err != nil {
		return "", err
	}
	return rec.String("name"), nil
}

func toPrice(rec Record) (itemlabel.Price, error) {
	rate, ok, err := rec.Money("price_list_rate")
	if err != nil {
		return itemlabel.Price{}, apperror.NewRemote(MethodGet, http.StatusOK, "", "bad price_list_rate").WithCause(err)
	}
	return itemlabel.Price{
		Name:      rec.String("name"),
		ItemCode:  rec.String("item_code"),
		PriceList: rec.String("price_list"),
		Rate:      rate,
		HasRate:   ok,
	}, nil
}
