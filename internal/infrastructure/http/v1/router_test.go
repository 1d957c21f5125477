package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/auth"
	"erpdesk/internal/domain/forms"
	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/domain/reports"
	"erpdesk/internal/infrastructure/http/v1/handlers"
	"erpdesk/internal/metadata"
	"erpdesk/pkg/logger"
)

type stubValues map[string]string

func (s stubValues) GetValue(_ context.Context, doctype, name, _ string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", apperror.NewNotFound(doctype, name)
}

type stubRunner struct {
	filters map[string]string
}

func (s *stubRunner) RunReport(_ context.Context, _ string, filters map[string]string) (*reports.Result, error) {
	s.filters = filters
	return &reports.Result{Columns: json.RawMessage(`["Posting Date:Date:90"]`), Rows: json.RawMessage(`[]`)}, nil
}

type stubPrices struct {
	prices map[string]itemlabel.Price
	writes map[string]string
}

func (s *stubPrices) GetPrice(_ context.Context, _, itemCode string) (*itemlabel.Price, error) {
	p, ok := s.prices[itemCode]
	if !ok {
		return nil, apperror.NewNotFound(itemlabel.PriceDocType, itemCode)
	}
	return &p, nil
}

func (s *stubPrices) ListPrices(_ context.Context, _, itemCode string) ([]itemlabel.Price, error) {
	if p, ok := s.prices[itemCode]; ok {
		return []itemlabel.Price{p}, nil
	}
	return nil, nil
}

func (s *stubPrices) SetRate(_ context.Context, name string, rate types.Money) error {
	s.writes[name] = rate.String()
	return nil
}

func (s *stubPrices) CreatePrice(context.Context, string, string, types.Money) (string, error) {
	return "", apperror.NewForbidden("not allowed")
}

type stubSource map[string]string

func (s stubSource) GetDoc(_ context.Context, doctype, name string) ([]byte, error) {
	if doc, ok := s[name]; ok {
		return []byte(doc), nil
	}
	return nil, apperror.NewNotFound(doctype, name)
}

type memJournal struct {
	entries []audit.Entry
}

func (m *memJournal) Record(_ context.Context, entries ...audit.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memJournal) List(_ context.Context, f audit.Filter) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range m.entries {
		if f.Label == "" || e.Label == f.Label {
			out = append(out, e)
		}
	}
	return out, nil
}

const storedLabel = `{
	"doctype": "Item Label", "name": "LBL-0001", "docstatus": 1,
	"items": [
		{"name": "row-1", "item_code": "ITEM-1", "price_list": "Standard Selling", "item_price": 25},
		{"name": "row-2", "item_code": "ITEM-2", "price_list": "Standard Selling", "item_price": 7}
	]
}`

type testServer struct {
	router  *gin.Engine
	token   string
	runner  *stubRunner
	prices  *stubPrices
	journal *memJournal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()

	defaults, err := metadata.NewDefaults(func() time.Time {
		return time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)
	registry := metadata.NewRegistry(defaults)
	require.NoError(t, reports.RegisterAll(registry))
	require.NoError(t, itemlabel.RegisterSchemas(registry))

	runner := &stubRunner{}
	callbacks := reports.Callbacks{
		reports.OnCustomerChange: reports.CustomerNameLookup(stubValues{"CUST-001": "Acme Co"}, log),
	}
	reportService, err := reports.NewService(registry, runner, callbacks, log)
	require.NoError(t, err)

	prices := &stubPrices{
		prices: map[string]itemlabel.Price{
			"ITEM-1": {Name: "PRICE-1", ItemCode: "ITEM-1", PriceList: "Standard Selling", Rate: types.MustMoney("20"), HasRate: true},
			"ITEM-2": {Name: "PRICE-2", ItemCode: "ITEM-2", PriceList: "Standard Selling", Rate: types.MustMoney("7"), HasRate: true},
		},
		writes: map[string]string{},
	}
	journal := &memJournal{}
	syncer := itemlabel.NewSyncer(prices, journal, itemlabel.SyncOptions{}, log)
	formRegistry := forms.NewRegistry()
	itemlabel.Register(formRegistry, itemlabel.NewHandlers(prices, syncer, log))

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	token, _, err := jwtService.Issue("jane@example.com", map[string]string{"company": "Acme"})
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Logger:   log,
		Sessions: jwtService,
		Version:  "test",
		HealthChecks: map[string]handlers.Pinger{
			"frappe": handlers.PingFunc(func(context.Context) error { return nil }),
		},
		Metadata:    registry,
		Reports:     reportService,
		Forms:       formRegistry,
		Labels:      itemlabel.NewService(stubSource{"LBL-0001": storedLabel}, registry, syncer),
		AuditReader: journal,
	})

	return &testServer{router: router, token: token, runner: runner, prices: prices, journal: journal}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func reportPath(name, suffix string) string {
	return "/api/v1/reports/" + url.PathEscape(name) + suffix
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	w := s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"frappe":"healthy"}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	s.token = ""
	w := s.do(t, http.MethodGet, "/api/v1/reports", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.token = "garbage"
	w = s.do(t, http.MethodGet, "/api/v1/reports", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	assert.Equal(t, apperror.CodeUnauthorized, body.Code)
}

func TestReports_ListAndDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, len(reports.Definitions()), list.Count)

	w = s.do(t, http.MethodGet, reportPath(reports.CustomerAccountStatement, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def struct {
		Name     string            `json:"name"`
		Defaults map[string]string `json:"defaults"`
	}
	decode(t, w, &def)
	assert.Equal(t, reports.CustomerAccountStatement, def.Name)
	assert.Equal(t, map[string]string{
		"company":   "Acme",
		"from_date": "2024-02-29",
		"to_date":   "2024-03-31",
	}, def.Defaults)

	w = s.do(t, http.MethodGet, reportPath("Nope", ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReports_ChangeCustomer(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, reportPath(reports.CustomerAccountStatement, "/change"), map[string]any{
		"field": "customer",
		"value": "CUST-001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var state reports.State
	decode(t, w, &state)
	assert.True(t, state.Refresh)
	assert.Equal(t, "Acme Co", state.Values["customer_name"])
	assert.Empty(t, state.Missing)
}

func TestReports_Run(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, reportPath(reports.CustomerStatement, "/run"), map[string]any{
		"filters": map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var problem struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	decode(t, w, &problem)
	assert.Equal(t, apperror.CodeMissingFilter, problem.Code)
	assert.Equal(t, []any{"customer"}, problem.Details["fields"])

	w = s.do(t, http.MethodPost, reportPath(reports.CustomerStatement, "/run"), map[string]any{
		"filters": map[string]string{"customer": "CUST-001"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CUST-001", s.runner.filters["customer"])
	assert.Equal(t, "UnPaid", s.runner.filters["invoice_type"])
}

func TestMeta_DocTypes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/meta/doctypes/"+url.PathEscape(itemlabel.DocType), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def metadata.DocTypeDef
	decode(t, w, &def)
	assert.True(t, def.IsSubmittable)

	w = s.do(t, http.MethodGet, "/api/v1/meta/doctypes/Nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForms_ItemCodeEvent(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/forms/Item%20Label/events/item_code", map[string]any{
		"doc": json.RawMessage(`{"doctype": "Item Label", "items": [{"name": "row-1", "item_code": "ITEM-1", "price_list": "Standard Selling"}]}`),
		"row": map[string]string{"name": "row-1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Doc struct {
			Items []map[string]any `json:"items"`
		} `json:"doc"`
		Refreshes []forms.FieldRefresh `json:"refreshes"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Doc.Items, 1)
	assert.Equal(t, "20", resp.Doc.Items[0]["item_price"])
	assert.Equal(t, []forms.FieldRefresh{{Field: "item_price", Cdn: "row-1", Table: itemlabel.ItemsTable}}, resp.Refreshes)
}

func TestForms_RefreshAndMismatch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/forms/Item%20Label/events/refresh", map[string]any{
		"doc": json.RawMessage(`{"doctype": "Item Label"}`),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Queries []forms.Query `json:"queries"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Queries, 1)
	assert.Equal(t, "price_list", resp.Queries[0].Field)

	w = s.do(t, http.MethodPost, "/api/v1/forms/Customer/events/refresh", map[string]any{
		"doc": json.RawMessage(`{"doctype": "Item Label"}`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLabels_SyncAndAudit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/labels/LBL-0001/sync", map[string]any{"dry_run": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, s.prices.writes)

	w = s.do(t, http.MethodPost, "/api/v1/labels/LBL-0001/sync", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report itemlabel.SyncReport
	decode(t, w, &report)
	assert.Equal(t, 1, report.Count(itemlabel.OutcomeUpdated))
	assert.Equal(t, 1, report.Count(itemlabel.OutcomeUnchanged))
	assert.Equal(t, map[string]string{"PRICE-1": "25"}, s.prices.writes)

	w = s.do(t, http.MethodGet, "/api/v1/audit/prices?label=LBL-0001", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entries struct {
		Count int `json:"count"`
		Items []struct {
			ItemCode string `json:"item_code"`
			User     string `json:"user"`
		} `json:"items"`
	}
	decode(t, w, &entries)
	require.Equal(t, 1, entries.Count)
	assert.Equal(t, "ITEM-1", entries.Items[0].ItemCode)
	assert.Equal(t, "jane@example.com", entries.Items[0].User)

	w = s.do(t, http.MethodPost, "/api/v1/labels/LBL-404/sync", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
