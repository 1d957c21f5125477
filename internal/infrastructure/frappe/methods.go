package frappe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/reports"
)

// Method names of the site's client API.
const (
	MethodGet         = "frappe.client.get"
	MethodGetList     = "frappe.client.get_list"
	MethodGetValue    = "frappe.client.get_value"
	MethodSetValue    = "frappe.client.set_value"
	MethodInsert      = "frappe.client.insert"
	MethodRunReport   = "frappe.desk.query_report.run"
	MethodLoggedUser  = "frappe.auth.get_logged_user"
	noDocumentMessage = "No document found"
)

// Record is a document or a partial document as returned by the site.
type Record map[string]any

// String returns a field as text, "" when absent.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Money returns a currency field. ok is false when the field is null.
func (r Record) Money(field string) (types.Money, bool, error) {
	return types.MoneyFromAny(r[field])
}

// Get fetches the first document of doctype matching filters.
func (c *Client) Get(ctx context.Context, doctype string, filters map[string]any) (Record, error) {
	var rec Record
	err := c.Call(ctx, MethodGet, map[string]any{
		"doctype": doctype,
		"filters": filters,
	}, &rec)
	if err != nil {
		return nil, notFoundAs(err, doctype, filters)
	}
	if len(rec) == 0 {
		return nil, apperror.NewNotFound(doctype, filters)
	}
	return rec, nil
}

// GetDoc fetches a whole document by name as raw JSON.
func (c *Client) GetDoc(ctx context.Context, doctype, name string) ([]byte, error) {
	var raw json.RawMessage
	err := c.Call(ctx, MethodGet, map[string]any{
		"doctype": doctype,
		"name":    name,
	}, &raw)
	if err != nil {
		return nil, notFoundAs(err, doctype, name)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, apperror.NewNotFound(doctype, name)
	}
	return raw, nil
}

// GetList lists documents matching filters. limit <= 0 uses the site default.
func (c *Client) GetList(ctx context.Context, doctype string, filters map[string]any, fields []string, limit int) ([]Record, error) {
	args := map[string]any{
		"doctype": doctype,
		"filters": filters,
		"fields":  fields,
	}
	if limit > 0 {
		args["limit_page_length"] = limit
	}
	var recs []Record
	if err := c.Call(ctx, MethodGetList, args, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// GetValue reads fields of the named document.
func (c *Client) GetValue(ctx context.Context, doctype, name string, fields ...string) (Record, error) {
	var rec Record
	err := c.Call(ctx, MethodGetValue, map[string]any{
		"doctype":   doctype,
		"filters":   name,
		"fieldname": fields,
	}, &rec)
	if err != nil {
		return nil, notFoundAs(err, doctype, name)
	}
	if len(rec) == 0 {
		return nil, apperror.NewNotFound(doctype, name)
	}
	return rec, nil
}

// SetValue writes one field of the named document and returns the saved document.
func (c *Client) SetValue(ctx context.Context, doctype, name, field string, value any) (Record, error) {
	var rec Record
	err := c.Call(ctx, MethodSetValue, map[string]any{
		"doctype":   doctype,
		"name":      name,
		"fieldname": field,
		"value":     value,
	}, &rec)
	if err != nil {
		return nil, notFoundAs(err, doctype, name)
	}
	return rec, nil
}

// Insert creates a document. doc must carry its "doctype".
func (c *Client) Insert(ctx context.Context, doc Record) (Record, error) {
	if doc.String("doctype") == "" {
		return nil, apperror.NewValidation("insert: document has no doctype")
	}
	var rec Record
	if err := c.Call(ctx, MethodInsert, map[string]any{"doc": doc}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RunReport runs a query report with filters.
func (c *Client) RunReport(ctx context.Context, name string, filters map[string]string) (*reports.Result, error) {
	var res reports.Result
	err := c.Call(ctx, MethodRunReport, map[string]any{
		"report_name": name,
		"filters":     filters,
	}, &res)
	if err != nil {
		return nil, notFoundAs(err, "Report", name)
	}
	return &res, nil
}

// Ping checks that the site answers and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	var user string
	return c.Call(ctx, MethodLoggedUser, nil, &user)
}

// notFoundAs names the missing entity. frappe.client.get answers a filter
// miss with a ValidationError rather than DoesNotExistError.
func notFoundAs(err error, doctype string, id any) error {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return err
	}
	if appErr.Code == apperror.CodeNotFound {
		return apperror.NewNotFound(doctype, id).WithCause(err)
	}
	if appErr.Code == apperror.CodeRemote && strings.Contains(appErr.Message, noDocumentMessage) {
		return apperror.NewNotFound(doctype, id).WithCause(err)
	}
	return err
}
