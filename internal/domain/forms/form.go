package forms

import (
	"sort"
)

// QueryFilters constrain the records a link field may select.
type QueryFilters map[string]any

// Query is a link field constraint installed by a handler.
// Table is empty for fields of the parent document.
type Query struct {
	Field   string       `json:"field"`
	Table   string       `json:"table,omitempty"`
	Filters QueryFilters `json:"filters"`
}

// FieldRefresh asks the renderer to redraw one field, or one row cell when Cdn is set.
type FieldRefresh struct {
	Field string `json:"field"`
	Cdn   string `json:"cdn,omitempty"`
	Table string `json:"table,omitempty"`
}

// Form is the per-event context handed to handlers.
// Query constraints live only as long as the form; refresh re-installs them.
type Form struct {
	Doc *Doc

	queries   map[string]Query
	refreshes []FieldRefresh
	results   map[string]any
}

// NewForm wraps doc for one event dispatch.
func NewForm(doc *Doc) *Form {
	return &Form{
		Doc:     doc,
		queries: make(map[string]Query),
		results: make(map[string]any),
	}
}

// SetQuery installs a link field constraint, replacing any earlier one.
func (f *Form) SetQuery(field, table string, filters QueryFilters) {
	f.queries[table+"."+field] = Query{Field: field, Table: table, Filters: filters}
}

// Query returns the constraint of a link field.
func (f *Form) Query(field, table string) (Query, bool) {
	q, ok := f.queries[table+"."+field]
	return q, ok
}

// Queries returns all constraints sorted by table and field.
func (f *Form) Queries() []Query {
	out := make([]Query, 0, len(f.queries))
	for _, q := range f.queries {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// RefreshField records a redraw request.
func (f *Form) RefreshField(field, cdn, table string) {
	f.refreshes = append(f.refreshes, FieldRefresh{Field: field, Cdn: cdn, Table: table})
}

// Refreshes returns redraw requests in the order they were made.
func (f *Form) Refreshes() []FieldRefresh {
	out := make([]FieldRefresh, len(f.refreshes))
	copy(out, f.refreshes)
	return out
}

// SetResult stores an event outcome for the caller, such as a sync report.
func (f *Form) SetResult(key string, v any) {
	f.results[key] = v
}

// Result returns an event outcome stored by a handler.
func (f *Form) Result(key string) (any, bool) {
	v, ok := f.results[key]
	return v, ok
}

// Results returns a copy of all event outcomes.
func (f *Form) Results() map[string]any {
	out := make(map[string]any, len(f.results))
	for k, v := range f.results {
		out[k] = v
	}
	return out
}
