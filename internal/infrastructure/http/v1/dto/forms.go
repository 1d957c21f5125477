package dto

import (
	"encoding/json"

	"erpdesk/internal/domain/forms"
)

// FormEventRequest fires one event on a document sent by the desk.
type FormEventRequest struct {
	Doc json.RawMessage `json:"doc" binding:"required"`
	Row *forms.RowRef   `json:"row,omitempty"`
}

// FormEventResponse is the document and form state after the handlers ran.
type FormEventResponse struct {
	Doc       *forms.Doc           `json:"doc"`
	Queries   []forms.Query        `json:"queries"`
	Refreshes []forms.FieldRefresh `json:"refreshes"`
	Results   map[string]any       `json:"results,omitempty"`
}

// FromForm builds the response for f.
func FromForm(f *forms.Form) FormEventResponse {
	refreshes := f.Refreshes()
	if refreshes == nil {
		refreshes = []forms.FieldRefresh{}
	}
	resp := FormEventResponse{
		Doc:       f.Doc,
		Queries:   f.Queries(),
		Refreshes: refreshes,
	}
	if results := f.Results(); len(results) > 0 {
		resp.Results = results
	}
	return resp
}

// SyncLabelRequest overrides sync options for one run. Nil keeps the server default.
type SyncLabelRequest struct {
	DryRun        bool  `json:"dry_run"`
	CreateMissing *bool `json:"create_missing"`
}
