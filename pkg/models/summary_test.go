package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal/pkg/models"
)

func TestLedgerStatusApply(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	yes := true

	t.Run("invoice keeps stock flag", func(t *testing.T) {
		initial := models.NewLedgerStatus(models.FamilyInvoice, at)
		require.NotNil(t, initial.StockPosted)
		assert.False(t, *initial.StockPosted)

		next := initial.Apply(models.LedgerPatch{StockPosted: &yes, Accounted: &yes}, models.FamilyInvoice, "ana", at.Add(time.Hour))
		assert.True(t, *next.StockPosted)
		assert.True(t, next.Accounted)
		assert.False(t, next.PayablesPosted)
		assert.Equal(t, "ana", next.UpdatedBy)

		// the original is untouched
		assert.False(t, *initial.StockPosted)
		assert.False(t, initial.Accounted)
	})

	t.Run("waybill never gets a stock flag", func(t *testing.T) {
		initial := models.NewLedgerStatus(models.FamilyWaybill, at)
		assert.Nil(t, initial.StockPosted)

		next := initial.Apply(models.LedgerPatch{StockPosted: &yes, PayablesPosted: &yes}, models.FamilyWaybill, "", at)
		assert.Nil(t, next.StockPosted)
		assert.True(t, next.PayablesPosted)
	})
}
