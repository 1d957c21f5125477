package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"

	"erpdesk/internal/domain/audit"
)

const priceAuditTable = "price_audit"

// PriceAuditSchema creates the journal table. Applied by EnsureSchema.
const PriceAuditSchema = `
CREATE TABLE IF NOT EXISTS price_audit (
    id                  UUID PRIMARY KEY,
    action              TEXT NOT NULL,
    label               TEXT NOT NULL,
    row_name            TEXT NOT NULL,
    item_code           TEXT NOT NULL,
    price_list          TEXT NOT NULL,
    price_name          TEXT NOT NULL,
    old_rate            NUMERIC(18, 6),
    new_rate            NUMERIC(18, 6) NOT NULL,
    user_name           TEXT NOT NULL DEFAULT '',
    trace_id            TEXT NOT NULL DEFAULT '',
    snapshot            JSONB,
    snapshot_compressed BYTEA,
    compression_algo    TEXT NOT NULL DEFAULT 'none',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_price_audit_label ON price_audit (label, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_price_audit_item ON price_audit (item_code, created_at DESC);
`

// CompressionAlgo names how a snapshot is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type priceAuditRow struct {
	ID                 uuid.UUID           `db:"id"`
	Action             string              `db:"action"`
	Label              string              `db:"label"`
	RowName            string              `db:"row_name"`
	ItemCode           string              `db:"item_code"`
	PriceList          string              `db:"price_list"`
	PriceName          string              `db:"price_name"`
	OldRate            decimal.NullDecimal `db:"old_rate"`
	NewRate            decimal.Decimal     `db:"new_rate"`
	UserName           string              `db:"user_name"`
	TraceID            string              `db:"trace_id"`
	Snapshot           json.RawMessage     `db:"snapshot"`
	SnapshotCompressed []byte              `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo     `db:"compression_algo"`
	CreatedAt          time.Time           `db:"created_at"`
}

var priceAuditColumns = ExtractDBColumns[priceAuditRow]()

// PriceJournal stores price sync writes in PostgreSQL.
// Snapshots above compressThreshold bytes are kept zstd compressed.
type PriceJournal struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	now               func() time.Time
}

var (
	_ audit.Recorder = (*PriceJournal)(nil)
	_ audit.Reader   = (*PriceJournal)(nil)
)

// NewPriceJournal creates a journal. txManager may be nil when only the
// statement builders are used.
func NewPriceJournal(txManager *TxManager) (*PriceJournal, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &PriceJournal{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
		now:               time.Now,
	}, nil
}

// EnsureSchema creates the journal table if missing.
func (j *PriceJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.txManager.GetQuerier(ctx).Exec(ctx, PriceAuditSchema); err != nil {
		return fmt.Errorf("create price_audit: %w", err)
	}
	return nil
}

// Record inserts entries in a single statement.
func (j *PriceJournal) Record(ctx context.Context, entries ...audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query, args, err := j.insertQuery(ctx, entries)
	if err != nil {
		return err
	}
	return j.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := j.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert price audit: %w", err)
		}
		return nil
	})
}

// List returns entries newest first.
func (j *PriceJournal) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	query, args, err := listQuery(filter)
	if err != nil {
		return nil, err
	}

	var rows []priceAuditRow
	if err := pgxscan.Select(ctx, j.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select price audit: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := j.fromRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (j *PriceJournal) insertQuery(ctx context.Context, entries []audit.Entry) (string, []any, error) {
	b := psql.Insert(priceAuditTable).Columns(priceAuditColumns...)
	for _, e := range entries {
		audit.Enrich(ctx, &e, j.now())
		row, err := j.toRow(e)
		if err != nil {
			return "", nil, err
		}
		values := StructToMap(row)
		ordered := make([]any, len(priceAuditColumns))
		for i, col := range priceAuditColumns {
			ordered[i] = values[col]
		}
		b = b.Values(ordered...)
	}
	return b.ToSql()
}

func listQuery(filter audit.Filter) (string, []any, error) {
	b := psql.Select(priceAuditColumns...).From(priceAuditTable)
	if filter.Label != "" {
		b = b.Where(sq.Eq{"label": filter.Label})
	}
	if filter.ItemCode != "" {
		b = b.Where(sq.Eq{"item_code": filter.ItemCode})
	}
	if !filter.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": filter.Since})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return b.OrderBy("created_at DESC", "id").Limit(uint64(limit)).ToSql()
}

func (j *PriceJournal) toRow(e audit.Entry) (priceAuditRow, error) {
	id := uuid.New()
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return priceAuditRow{}, fmt.Errorf("audit entry id %q: %w", e.ID, err)
		}
		id = parsed
	}

	row := priceAuditRow{
		ID:        id,
		Action:    string(e.Action),
		Label:     e.Label,
		RowName:   e.RowName,
		ItemCode:  e.ItemCode,
		PriceList: e.PriceList,
		PriceName: e.PriceName,
		NewRate:   e.NewRate,
		UserName:  e.User,
		TraceID:   e.TraceID,
		CreatedAt: e.CreatedAt,
	}
	if e.OldRate != nil {
		row.OldRate = decimal.NullDecimal{Decimal: *e.OldRate, Valid: true}
	}
	if err := j.encodeSnapshot(e.Snapshot, &row); err != nil {
		return priceAuditRow{}, err
	}
	return row, nil
}

func (j *PriceJournal) fromRow(row priceAuditRow) (audit.Entry, error) {
	e := audit.Entry{
		ID:        row.ID.String(),
		Action:    audit.Action(row.Action),
		Label:     row.Label,
		RowName:   row.RowName,
		ItemCode:  row.ItemCode,
		PriceList: row.PriceList,
		PriceName: row.PriceName,
		NewRate:   row.NewRate,
		User:      row.UserName,
		TraceID:   row.TraceID,
		CreatedAt: row.CreatedAt,
	}
	if row.OldRate.Valid {
		old := row.OldRate.Decimal
		e.OldRate = &old
	}

	snapshot, err := j.decodeSnapshot(row)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("audit entry %s: %w", e.ID, err)
	}
	e.Snapshot = snapshot
	return e, nil
}

func (j *PriceJournal) encodeSnapshot(snapshot map[string]any, row *priceAuditRow) error {
	row.CompressionAlgo = CompressionNone
	if snapshot == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(data) > j.compressThreshold {
		row.SnapshotCompressed = j.encoder.EncodeAll(data, nil)
		row.CompressionAlgo = CompressionZstd
		return nil
	}
	row.Snapshot = data
	return nil
}

func (j *PriceJournal) decodeSnapshot(row priceAuditRow) (map[string]any, error) {
	data := []byte(row.Snapshot)
	switch row.CompressionAlgo {
	case CompressionZstd:
		decoded, err := j.decoder.DecodeAll(row.SnapshotCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		data = decoded
	case CompressionNone, "":
	default:
		return nil, fmt.Errorf("unknown compression %q", row.CompressionAlgo)
	}

	if len(data) == 0 {
		return nil, nil
	}
	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
