package itemlabel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpdesk/internal/core/apperror"
	appctx "erpdesk/internal/core/context"
	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/forms"
	"erpdesk/internal/metadata"
	"erpdesk/pkg/logger"
)

type write struct {
	name string
	rate string
}

type fakePrices struct {
	mu      sync.Mutex
	prices  map[string]Price // key: price_list|item_code
	failFor map[string]error
	writes  []write
	created []write
	setErr  error
}

func key(priceList, itemCode string) string { return priceList + "|" + itemCode }

func (f *fakePrices) GetPrice(_ context.Context, priceList, itemCode string) (*Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[itemCode]; err != nil {
		return nil, err
	}
	p, ok := f.prices[key(priceList, itemCode)]
	if !ok {
		return nil, apperror.NewNotFound(PriceDocType, itemCode)
	}
	return &p, nil
}

func (f *fakePrices) ListPrices(_ context.Context, priceList, itemCode string) ([]Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[itemCode]; err != nil {
		return nil, err
	}
	p, ok := f.prices[key(priceList, itemCode)]
	if !ok {
		return nil, nil
	}
	return []Price{p}, nil
}

func (f *fakePrices) SetRate(_ context.Context, name string, rate types.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.writes = append(f.writes, write{name: name, rate: rate.String()})
	return nil
}

func (f *fakePrices) CreatePrice(_ context.Context, priceList, itemCode string, rate types.Money) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := "PRICE-NEW-" + itemCode
	f.created = append(f.created, write{name: name, rate: rate.String()})
	return name, nil
}

type memRecorder struct {
	entries []audit.Entry
}

func (m *memRecorder) Record(_ context.Context, entries ...audit.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func price(name, priceList, itemCode, rate string) Price {
	return Price{Name: name, PriceList: priceList, ItemCode: itemCode, Rate: types.MustMoney(rate), HasRate: true}
}

func schemas(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.NewRegistry(nil)
	require.NoError(t, RegisterSchemas(reg))
	return reg
}

func newLabel(t *testing.T, rows ...map[string]any) *forms.Doc {
	t.Helper()
	doc, err := forms.NewDoc(schemas(t), DocType)
	require.NoError(t, err)
	doc.Name = "LBL-0001"
	for _, r := range rows {
		_, err := doc.AddRow(ItemsTable, "", r)
		require.NoError(t, err)
	}
	return doc
}

func setup(prices *fakePrices, recorder audit.Recorder, opts SyncOptions) (*forms.Registry, *Handlers) {
	syncer := NewSyncer(prices, recorder, opts, logger.Nop())
	h := NewHandlers(prices, syncer, logger.Nop())
	reg := forms.NewRegistry()
	Register(reg, h)
	return reg, h
}

func TestSchemas(t *testing.T) {
	reg := schemas(t)
	label, ok := reg.DocType(DocType)
	require.True(t, ok)
	assert.True(t, label.IsSubmittable)
	tables := label.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, RowDocType, tables[0].Options)

	row, ok := reg.DocType(RowDocType)
	require.True(t, ok)
	f, _ := row.Field("item_price")
	assert.Equal(t, metadata.TypeCurrency, f.Fieldtype)
}

func TestRegister_MergesLabelHandlers(t *testing.T) {
	reg, _ := setup(&fakePrices{}, nil, SyncOptions{})
	assert.Equal(t, []forms.Event{forms.EventOnSubmit, forms.EventRefresh}, reg.Events(DocType))
	assert.Equal(t, 1, reg.Count(RowDocType, "item_code"))
}

func TestRefresh_InstallsSellingQuery(t *testing.T) {
	reg, _ := setup(&fakePrices{}, nil, SyncOptions{})
	form := forms.NewForm(newLabel(t))

	require.NoError(t, reg.Dispatch(context.Background(), forms.EventRefresh, form, nil))
	q, ok := form.Query("price_list", ItemsTable)
	require.True(t, ok)
	assert.Equal(t, forms.QueryFilters{"selling": 1}, q.Filters)
}

func TestItemCode_SetsPrice(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "100"),
	}}
	reg, _ := setup(prices, nil, SyncOptions{})
	doc := newLabel(t, map[string]any{"price_list": "Standard", "item_code": "ITEM-1"})
	row := doc.Table(ItemsTable)[0]
	form := forms.NewForm(doc)

	err := reg.Dispatch(context.Background(), "item_code", form, &forms.RowRef{Doctype: RowDocType, Name: row.Name})
	require.NoError(t, err)

	got, ok, err := row.Money("item_price")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(types.MustMoney("100")))
	assert.Equal(t, []forms.FieldRefresh{{Field: "item_price", Cdn: row.Name, Table: ItemsTable}}, form.Refreshes())
}

func TestItemCode_MissingPriceLeavesRowUntouched(t *testing.T) {
	tests := []struct {
		name   string
		prices *fakePrices
	}{
		{name: "no record", prices: &fakePrices{prices: map[string]Price{}}},
		{name: "lookup error", prices: &fakePrices{failFor: map[string]error{"ITEM-1": errors.New("timeout")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := setup(tt.prices, nil, SyncOptions{})
			doc := newLabel(t, map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": types.MustMoney("42")})
			row := doc.Table(ItemsTable)[0]
			form := forms.NewForm(doc)

			err := reg.Dispatch(context.Background(), "item_code", form, &forms.RowRef{Name: row.Name})
			require.NoError(t, err)

			got, _, err := row.Money("item_price")
			require.NoError(t, err)
			assert.True(t, got.Equal(types.MustMoney("42")))
			assert.Empty(t, form.Refreshes())
		})
	}
}

func TestOnSubmit_WritesOnlyChangedRows(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
		key("Standard", "ITEM-2"): price("PRICE-2", "Standard", "ITEM-2", "20"),
		key("Standard", "ITEM-3"): price("PRICE-3", "Standard", "ITEM-3", "30"),
	}}
	recorder := &memRecorder{}
	reg, _ := setup(prices, recorder, SyncOptions{Concurrency: 2})

	doc := newLabel(t,
		map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": types.MustMoney("10.00")},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-2", "item_price": types.MustMoney("25")},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-3", "item_price": "30"},
	)
	form := forms.NewForm(doc)
	ctx := appctx.WithSession(context.Background(), &appctx.Session{User: "jane@example.com"})

	require.NoError(t, reg.Dispatch(ctx, forms.EventOnSubmit, form, nil))

	assert.Equal(t, []write{{name: "PRICE-2", rate: "25"}}, prices.writes)

	v, ok := form.Result(SyncResultKey)
	require.True(t, ok)
	report := v.(*SyncReport)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, OutcomeUnchanged, report.Rows[0].Outcome)
	assert.Equal(t, OutcomeUpdated, report.Rows[1].Outcome)
	assert.Equal(t, OutcomeUnchanged, report.Rows[2].Outcome)

	require.Len(t, recorder.entries, 1)
	e := recorder.entries[0]
	assert.Equal(t, audit.ActionPriceUpdate, e.Action)
	assert.Equal(t, "PRICE-2", e.PriceName)
	assert.Equal(t, "LBL-0001", e.Label)
	assert.Equal(t, "jane@example.com", e.User)
	require.NotNil(t, e.OldRate)
	assert.True(t, e.OldRate.Equal(types.MustMoney("20")))
}

func TestSync_FailuresAreIsolated(t *testing.T) {
	prices := &fakePrices{
		prices: map[string]Price{
			key("Standard", "ITEM-2"): price("PRICE-2", "Standard", "ITEM-2", "20"),
			key("Standard", "ITEM-3"): price("PRICE-3", "Standard", "ITEM-3", "30"),
		},
		failFor: map[string]error{"ITEM-1": errors.New("connection reset")},
	}
	syncer := NewSyncer(prices, nil, SyncOptions{}, logger.Nop())
	doc := newLabel(t,
		map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": "1"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-2", "item_price": "21"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-3", "item_price": "31"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-4", "item_price": "4"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-5"},
	)

	report := syncer.Sync(context.Background(), doc)
	assert.Equal(t, OutcomeFailed, report.Rows[0].Outcome)
	assert.Equal(t, OutcomeUpdated, report.Rows[1].Outcome)
	assert.Equal(t, OutcomeUpdated, report.Rows[2].Outcome)
	assert.Equal(t, OutcomeMissing, report.Rows[3].Outcome)
	assert.Equal(t, OutcomeSkipped, report.Rows[4].Outcome)
	assert.Equal(t, []write{{name: "PRICE-2", rate: "21"}, {name: "PRICE-3", rate: "31"}}, prices.writes)
}

func TestSync_WriteFailureDoesNotStopLaterRows(t *testing.T) {
	prices := &fakePrices{
		prices: map[string]Price{
			key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
		},
		setErr: errors.New("permission denied"),
	}
	syncer := NewSyncer(prices, nil, SyncOptions{CreateMissing: true}, logger.Nop())
	doc := newLabel(t,
		map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": "11"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-2", "item_price": "5"},
	)

	report := syncer.Sync(context.Background(), doc)
	assert.Equal(t, OutcomeFailed, report.Rows[0].Outcome)
	assert.Contains(t, report.Rows[0].Error, "permission denied")
	assert.Equal(t, OutcomeCreated, report.Rows[1].Outcome)
	assert.Equal(t, []write{{name: "PRICE-NEW-ITEM-2", rate: "5"}}, prices.created)
}

func TestSync_DryRun(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
	}}
	recorder := &memRecorder{}
	syncer := NewSyncer(prices, recorder, SyncOptions{}, logger.Nop()).
		WithOptions(SyncOptions{DryRun: true, CreateMissing: true})
	doc := newLabel(t,
		map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": "12"},
		map[string]any{"price_list": "Standard", "item_code": "ITEM-2", "item_price": "7"},
	)

	report := syncer.Sync(context.Background(), doc)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Count(OutcomeUpdated))
	assert.Equal(t, 1, report.Count(OutcomeCreated))
	assert.Empty(t, prices.writes)
	assert.Empty(t, prices.created)
	assert.Empty(t, recorder.entries)
}

type fakeSource struct {
	raw []byte
}

func (f fakeSource) GetDoc(context.Context, string, string) ([]byte, error) {
	return f.raw, nil
}

func TestService_SyncLabel(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
	}}
	syncer := NewSyncer(prices, nil, SyncOptions{}, logger.Nop())
	src := fakeSource{raw: []byte(`{
		"doctype": "Item Label", "name": "LBL-0009", "docstatus": 1,
		"items": [{"name": "row-a", "idx": 1, "item_code": "ITEM-1", "price_list": "Standard", "item_price": 15}]
	}`)}
	svc := NewService(src, schemas(t), syncer)

	report, err := svc.SyncLabel(context.Background(), "LBL-0009", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, "LBL-0009", report.Label)
	assert.Equal(t, []write{{name: "PRICE-1", rate: "15"}}, prices.writes)
}

func TestService_SyncLabel_SiteShapedDoc(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
	}}
	syncer := NewSyncer(prices, nil, SyncOptions{}, logger.Nop())
	src := fakeSource{raw: []byte(`{
		"doctype": "Item Label", "name": "LBL-0009", "docstatus": 1,
		"amended_from": null, "naming_series": "LBL-.####", "owner": "jane@example.com",
		"items": [{"name": "row-a", "idx": 1, "parent": "LBL-0009", "parenttype": "Item Label",
			"parentfield": "items", "doctype": "Item Label Reference",
			"item_code": "ITEM-1", "price_list": "Standard", "item_price": 15}]
	}`)}
	svc := NewService(src, schemas(t), syncer)

	report, err := svc.SyncLabel(context.Background(), "LBL-0009", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(OutcomeUpdated))
	assert.Equal(t, []write{{name: "PRICE-1", rate: "15"}}, prices.writes)
}

func TestService_SyncLabel_RejectsUnsubmitted(t *testing.T) {
	for _, docstatus := range []string{"0", "2"} {
		t.Run("docstatus "+docstatus, func(t *testing.T) {
			prices := &fakePrices{prices: map[string]Price{
				key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "10"),
			}}
			syncer := NewSyncer(prices, nil, SyncOptions{}, logger.Nop())
			src := fakeSource{raw: []byte(`{
				"doctype": "Item Label", "name": "LBL-0010", "docstatus": ` + docstatus + `,
				"items": [{"name": "row-a", "item_code": "ITEM-1", "price_list": "Standard", "item_price": 15}]
			}`)}
			svc := NewService(src, schemas(t), syncer)

			_, err := svc.SyncLabel(context.Background(), "LBL-0010", SyncOptions{})
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Empty(t, prices.writes)
		})
	}
}

func TestSync_ZeroRateIsNotOverwritten(t *testing.T) {
	prices := &fakePrices{prices: map[string]Price{
		key("Standard", "ITEM-1"): price("PRICE-1", "Standard", "ITEM-1", "0"),
	}}
	recorder := &memRecorder{}
	syncer := NewSyncer(prices, recorder, SyncOptions{}, logger.Nop())
	doc := newLabel(t, map[string]any{"price_list": "Standard", "item_code": "ITEM-1", "item_price": "15"})

	report := syncer.Sync(context.Background(), doc)
	assert.Equal(t, 1, report.Count(OutcomeUnchanged))
	assert.Empty(t, prices.writes)
	assert.Empty(t, recorder.entries)
}
