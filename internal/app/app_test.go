package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpdesk/internal/config"
	"erpdesk/internal/domain/auth"
	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/domain/reports"
	"erpdesk/pkg/logger"
)

func TestNewMetadata(t *testing.T) {
	reg, err := NewMetadata(func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, err)

	assert.Len(t, reg.Reports(), len(reports.Definitions()))
	_, ok := reg.Report(reports.PLByCostCenter)
	assert.True(t, ok)
	_, ok = reg.DocType(itemlabel.DocType)
	assert.True(t, ok)
	_, ok = reg.DocType(itemlabel.RowDocType)
	assert.True(t, ok)
}

func TestNew_WithoutOptionalStores(t *testing.T) {
	cfg := &config.Config{
		FrappeURL:       "http://127.0.0.1:1",
		FrappeTimeout:   time.Second,
		SyncConcurrency: 2,
	}
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Journal)
	assert.Equal(t, 1, a.Forms.Count(itemlabel.RowDocType, "item_code"))

	rc := a.RouterConfig(auth.NewJWTService(auth.DefaultJWTConfig("s")))
	assert.Nil(t, rc.AuditReader)
	assert.Contains(t, rc.HealthChecks, "frappe")
	assert.NotContains(t, rc.HealthChecks, "database")
	assert.Equal(t, 2, rc.SyncDefaults.Concurrency)
}

func TestNew_RequiresSite(t *testing.T) {
	_, err := New(context.Background(), &config.Config{}, logger.Nop())
	assert.Error(t, err)
}
