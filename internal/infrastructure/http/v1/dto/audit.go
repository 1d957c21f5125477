package dto

import (
	"time"

	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/audit"
)

// AuditQuery filters the price journal.
type AuditQuery struct {
	Label    string    `form:"label"`
	ItemCode string    `form:"item_code"`
	Since    time.Time `form:"since" time_format:"2006-01-02"`
	Limit    int       `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// Filter converts q to a journal filter.
func (q AuditQuery) Filter() audit.Filter {
	return audit.Filter{Label: q.Label, ItemCode: q.ItemCode, Since: q.Since, Limit: q.Limit}
}

// AuditEntryResponse is one journal entry.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Action    audit.Action   `json:"action"`
	Label     string         `json:"label"`
	RowName   string         `json:"row_name"`
	ItemCode  string         `json:"item_code"`
	PriceList string         `json:"price_list"`
	PriceName string         `json:"price_name"`
	OldRate   *types.Money   `json:"old_rate,omitempty"`
	NewRate   types.Money    `json:"new_rate"`
	User      string         `json:"user,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Snapshot  map[string]any `json:"snapshot,omitempty"`
}

// FromAuditEntries converts journal entries.
func FromAuditEntries(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID,
			Action:    e.Action,
			Label:     e.Label,
			RowName:   e.RowName,
			ItemCode:  e.ItemCode,
			PriceList: e.PriceList,
			PriceName: e.PriceName,
			OldRate:   e.OldRate,
			NewRate:   e.NewRate,
			User:      e.User,
			TraceID:   e.TraceID,
			CreatedAt: e.CreatedAt,
			Snapshot:  e.Snapshot,
		})
	}
	return out
}
