// Package audit defines the price change journal written by the label price sync.
package audit

import (
	"context"
	"time"

	appctx "erpdesk/internal/core/context"
	"erpdesk/internal/core/types"
)

// Action is the kind of price write.
type Action string

const (
	ActionPriceUpdate Action = "price_update"
	ActionPriceCreate Action = "price_create"
)

// Entry is one applied price write.
type Entry struct {
	ID        string
	Action    Action
	Label     string
	RowName   string
	ItemCode  string
	PriceList string
	PriceName string
	OldRate   *types.Money
	NewRate   types.Money
	User      string
	TraceID   string
	CreatedAt time.Time

	// Snapshot is the row as it was submitted.
	Snapshot map[string]any
}

// Filter narrows journal queries. Zero values match everything.
type Filter struct {
	Label    string
	ItemCode string
	Since    time.Time
	Limit    int
}

// Recorder stores journal entries.
type Recorder interface {
	Record(ctx context.Context, entries ...Entry) error
}

// Reader queries the journal.
type Reader interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Nop discards entries. Used when no journal store is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, ...Entry) error { return nil }

// List implements Reader.
func (Nop) List(context.Context, Filter) ([]Entry, error) { return nil, nil }

// Enrich fills the acting user, trace id and timestamp from ctx.
// Fields already set are kept.
func Enrich(ctx context.Context, e *Entry, now time.Time) {
	if e.User == "" {
		e.User = appctx.GetUser(ctx)
	}
	if e.TraceID == "" {
		e.TraceID = appctx.GetTraceID(ctx)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
}
