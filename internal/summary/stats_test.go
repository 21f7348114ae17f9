package summary_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fiscal/internal/summary"
	"fiscal/pkg/models"
)

func TestAggregate(t *testing.T) {
	docs := []models.Summary{
		{Family: models.FamilyInvoice, Total: models.NewDecimal("0.10"), Status: "ativa", IssuedAt: "2024-02-03T10:00:00-03:00", Accounted: true, StockPosted: boolPtr(true)},
		{Family: models.FamilyInvoice, Total: models.NewDecimal("0.20"), Status: "cancelada", IssuedAt: "2024-01-31T23:59:00-03:00", StockPosted: boolPtr(false)},
		{Family: models.FamilyWaybill, Total: models.NewDecimal("1500.00"), Status: "ativo", IssuedAt: "2024-02-10T09:00:00-03:00", PayablesPosted: true},
		{Family: models.FamilyWaybill, Total: models.NewDecimal("n/a"), Status: "inutilizado", IssuedAt: "2024-02-11"},
	}

	stats := summary.Aggregate(docs, time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, 4, stats.Documents)
	assert.Equal(t, "1500.30", stats.Value)
	assert.Equal(t, summary.FamilyStats{Count: 2, Value: "0.30"}, stats.Invoices)
	assert.Equal(t, summary.FamilyStats{Count: 2, Value: "1500.00"}, stats.Waybills)
	assert.Equal(t, 1, stats.Unparsable)

	assert.Equal(t, 3, stats.PendingAccounting)
	assert.Equal(t, 1, stats.PendingStock, "only invoices count towards stock")
	assert.Equal(t, 3, stats.PendingPayables)

	assert.Equal(t, "2024-02", stats.Month)
	assert.Equal(t, 3, stats.MonthCount)
	assert.Equal(t, "1500.10", stats.MonthValue)

	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Canceled)
	assert.Equal(t, 1, stats.Voided)
	assert.Equal(t, 0, stats.Denied)
}

func TestAggregateEmpty(t *testing.T) {
	stats := summary.Aggregate(nil, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, "0.00", stats.Value)
	assert.Equal(t, "0.00", stats.MonthValue)
}
