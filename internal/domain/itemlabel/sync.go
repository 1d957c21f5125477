package itemlabel

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"erpdesk/internal/core/types"
	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/forms"
	"erpdesk/pkg/logger"
)

// Outcome is what the sync did with one row.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeMissing   Outcome = "missing"
	OutcomeCreated   Outcome = "created"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// RowResult is the sync outcome of one row.
type RowResult struct {
	Row       string       `json:"row"`
	Idx       int          `json:"idx"`
	ItemCode  string       `json:"item_code"`
	PriceList string       `json:"price_list"`
	PriceName string       `json:"price_name,omitempty"`
	OldRate   *types.Money `json:"old_rate,omitempty"`
	NewRate   *types.Money `json:"new_rate,omitempty"`
	Outcome   Outcome      `json:"outcome"`
	Error     string       `json:"error,omitempty"`
}

// SyncReport lists row outcomes in row order.
type SyncReport struct {
	Label  string      `json:"label"`
	DryRun bool        `json:"dry_run,omitempty"`
	Rows   []RowResult `json:"rows"`
}

// Count returns the number of rows with outcome o.
func (r *SyncReport) Count(o Outcome) int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcome == o {
			n++
		}
	}
	return n
}

// SyncOptions tune the submit-time price sync.
type SyncOptions struct {
	// Concurrency bounds in-flight price lookups. Zero means 4.
	Concurrency int

	// CreateMissing inserts a price record for rows that have none.
	CreateMissing bool

	// DryRun computes outcomes without writing.
	DryRun bool
}

// Syncer writes changed label prices back to the site.
type Syncer struct {
	prices   PriceStore
	recorder audit.Recorder
	opts     SyncOptions
	now      func() time.Time
	log      *logger.Logger
}

// NewSyncer creates a syncer. A nil recorder disables the journal.
func NewSyncer(prices PriceStore, recorder audit.Recorder, opts SyncOptions, log *logger.Logger) *Syncer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Syncer{
		prices:   prices,
		recorder: recorder,
		opts:     opts,
		now:      time.Now,
		log:      log.WithComponent("price_sync"),
	}
}

// WithOptions returns a copy of s using opts.
func (s *Syncer) WithOptions(opts SyncOptions) *Syncer {
	c := *s
	if opts.Concurrency <= 0 {
		opts.Concurrency = s.opts.Concurrency
	}
	c.opts = opts
	return &c
}

type rowInput struct {
	result   RowResult
	price    types.Money
	hasPrice bool
	snapshot map[string]any
	matches  []Price
	err      error
}

// Sync compares every row price with its price record and overwrites records
// whose rate differs. Lookups run concurrently but all of them finish before
// the first write, and writes go out in row order. One row failing never
// stops the others and nothing is rolled back.
func (s *Syncer) Sync(ctx context.Context, doc *forms.Doc) *SyncReport {
	rows := doc.Table(ItemsTable)
	inputs := make([]rowInput, len(rows))
	for i, r := range rows {
		in := &inputs[i]
		in.result = RowResult{
			Row:       r.Name,
			Idx:       r.Idx,
			ItemCode:  r.String("item_code"),
			PriceList: r.String("price_list"),
		}
		in.snapshot = r.Fields()
		in.price, in.hasPrice, in.err = r.Money("item_price")
	}

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i := range inputs {
		in := &inputs[i]
		if in.err != nil || !in.hasPrice || in.result.ItemCode == "" || in.result.PriceList == "" {
			continue
		}
		g.Go(func() error {
			in.matches, in.err = s.prices.ListPrices(ctx, in.result.PriceList, in.result.ItemCode)
			return nil
		})
	}
	_ = g.Wait()

	report := &SyncReport{Label: doc.Name, DryRun: s.opts.DryRun, Rows: make([]RowResult, 0, len(inputs))}
	var entries []audit.Entry
	for i := range inputs {
		res, entry := s.apply(ctx, &inputs[i])
		report.Rows = append(report.Rows, res)
		if entry != nil {
			entry.Label = doc.Name
			entries = append(entries, *entry)
		}
	}

	if len(entries) > 0 {
		if err := s.recorder.Record(ctx, entries...); err != nil {
			s.log.WithContext(ctx).Warnw("price journal write failed", "label", doc.Name, "error", err)
		}
	}
	return report
}

func (s *Syncer) apply(ctx context.Context, in *rowInput) (RowResult, *audit.Entry) {
	res := in.result
	log := s.log.WithContext(ctx).With("row", res.Row, "item_code", res.ItemCode, "price_list", res.PriceList)

	switch {
	case in.err != nil:
		res.Outcome = OutcomeFailed
		res.Error = in.err.Error()
		log.Warnw("price lookup failed", "error", in.err)
		return res, nil
	case !in.hasPrice || res.ItemCode == "" || res.PriceList == "":
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	newRate := in.price
	res.NewRate = &newRate

	if len(in.matches) == 0 {
		return s.create(ctx, res, in, log)
	}

	first := in.matches[0]
	res.PriceName = first.Name
	// a zero rate counts as no rate
	if !first.HasRate || first.Rate.IsZero() {
		res.Outcome = OutcomeUnchanged
		return res, nil
	}
	oldRate := first.Rate
	res.OldRate = &oldRate
	if oldRate.Equal(newRate) {
		res.Outcome = OutcomeUnchanged
		return res, nil
	}

	if s.opts.DryRun {
		res.Outcome = OutcomeUpdated
		return res, nil
	}
	if err := s.prices.SetRate(ctx, first.Name, newRate); err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		log.Warnw("price update failed", "price", first.Name, "error", err)
		return res, nil
	}

	res.Outcome = OutcomeUpdated
	log.Infow("price updated", "price", first.Name, "old_rate", oldRate.String(), "new_rate", newRate.String())
	return res, s.entry(ctx, audit.ActionPriceUpdate, res, in.snapshot)
}

func (s *Syncer) create(ctx context.Context, res RowResult, in *rowInput, log *logger.Logger) (RowResult, *audit.Entry) {
	if !s.opts.CreateMissing {
		res.Outcome = OutcomeMissing
		return res, nil
	}
	if s.opts.DryRun {
		res.Outcome = OutcomeCreated
		return res, nil
	}

	name, err := s.prices.CreatePrice(ctx, res.PriceList, res.ItemCode, in.price)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("create price: %v", err)
		log.Warnw("price create failed", "error", err)
		return res, nil
	}
	res.PriceName = name
	res.Outcome = OutcomeCreated
	log.Infow("price created", "price", name, "rate", in.price.String())
	return res, s.entry(ctx, audit.ActionPriceCreate, res, in.snapshot)
}

func (s *Syncer) entry(ctx context.Context, action audit.Action, res RowResult, snapshot map[string]any) *audit.Entry {
	e := &audit.Entry{
		Action:    action,
		RowName:   res.Row,
		ItemCode:  res.ItemCode,
		PriceList: res.PriceList,
		PriceName: res.PriceName,
		OldRate:   res.OldRate,
		NewRate:   *res.NewRate,
		Snapshot:  snapshot,
	}
	audit.Enrich(ctx, e, s.now())
	return e
}
