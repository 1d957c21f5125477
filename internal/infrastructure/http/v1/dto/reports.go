package dto

import (
	"erpdesk/internal/metadata"
)

// ReportSummary is one entry of the report list.
type ReportSummary struct {
	Name       string   `json:"name"`
	RefDoctype string   `json:"ref_doctype,omitempty"`
	Filters    []string `json:"filters"`
}

// FromReportDefs summarizes defs.
func FromReportDefs(defs []metadata.ReportDef) []ReportSummary {
	out := make([]ReportSummary, 0, len(defs))
	for _, def := range defs {
		s := ReportSummary{Name: def.Name, RefDoctype: def.RefDoctype, Filters: make([]string, 0, len(def.Filters))}
		for _, f := range def.Filters {
			s.Filters = append(s.Filters, f.Fieldname)
		}
		out = append(out, s)
	}
	return out
}

// ReportDefinitionResponse is a report definition with defaults resolved for the caller.
type ReportDefinitionResponse struct {
	metadata.ReportDef
	Defaults map[string]string `json:"defaults"`
}

// ChangeFilterRequest is one filter edit on top of the current form state.
type ChangeFilterRequest struct {
	Filters map[string]string `json:"filters"`
	Field   string            `json:"field" binding:"required"`
	Value   string            `json:"value"`
}

// RunReportRequest carries the filter values to run with.
type RunReportRequest struct {
	Filters map[string]string `json:"filters"`
}
