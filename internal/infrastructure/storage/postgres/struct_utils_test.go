package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stamped struct {
	TraceID string `db:"trace_id"`
	Ignored string `db:"-"`
}

type sampleRow struct {
	stamped
	Code  string `db:"code"`
	Name  string `db:"name"`
	Notes string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	assert.Equal(t, []string{"trace_id", "code", "name"}, ExtractDBColumns[sampleRow]())
}

func TestStructToMap(t *testing.T) {
	row := sampleRow{stamped: stamped{TraceID: "t-1", Ignored: "x"}, Code: "ITEM-1", Name: "Widget", Notes: "n"}

	m := StructToMap(&row)
	assert.Equal(t, map[string]any{"trace_id": "t-1", "code": "ITEM-1", "name": "Widget"}, m)
	assert.Nil(t, StructToMap("not a struct"))
}

func TestPriceAuditColumns(t *testing.T) {
	assert.Equal(t, []string{
		"id", "action", "label", "row_name", "item_code", "price_list", "price_name",
		"old_rate", "new_rate", "user_name", "trace_id", "snapshot", "snapshot_compressed",
		"compression_algo", "created_at",
	}, priceAuditColumns)
}
