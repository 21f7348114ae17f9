package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"fiscal/pkg/models"
)

// FamilyStats aggregates one document family.
type FamilyStats struct {
	Count int    `json:"count"`
	Value string `json:"value"`
}

// Stats is the dashboard view over a set of summaries. Values are exact sums
// rendered with two decimal places.
type Stats struct {
	Documents int    `json:"documents"`
	Value     string `json:"value"`

	Invoices FamilyStats `json:"invoices"`
	Waybills FamilyStats `json:"waybills"`

	PendingAccounting int `json:"pending_accounting"`
	PendingStock      int `json:"pending_stock"` // invoices only
	PendingPayables   int `json:"pending_payables"`

	Month      string `json:"month"` // yyyy-mm
	MonthCount int    `json:"month_count"`
	MonthValue string `json:"month_value"`

	Active   int `json:"active"`
	Canceled int `json:"canceled"`
	Voided   int `json:"voided"`
	Denied   int `json:"denied"`

	// Unparsable counts totals that could not be summed.
	Unparsable int `json:"unparsable,omitempty"`
}

// Aggregate computes Stats. The month window is the calendar month of now;
// documents are placed by the day written in their issue date.
func Aggregate(docs []models.Summary, now time.Time) Stats {
	var (
		total, invoices, waybills, month decimal.Decimal
		stats                            Stats
	)
	year, mon, _ := now.Date()
	stats.Month = now.Format("2006-01")

	for _, doc := range docs {
		stats.Documents++

		value, err := doc.Total.Value()
		if err != nil {
			stats.Unparsable++
			value = decimal.Zero
		}
		total = total.Add(value)

		switch doc.Family {
		case models.FamilyInvoice:
			stats.Invoices.Count++
			invoices = invoices.Add(value)
			if doc.StockPosted == nil || !*doc.StockPosted {
				stats.PendingStock++
			}
		case models.FamilyWaybill:
			stats.Waybills.Count++
			waybills = waybills.Add(value)
		}

		if !doc.Accounted {
			stats.PendingAccounting++
		}
		if !doc.PayablesPosted {
			stats.PendingPayables++
		}

		if issued, ok := ParseIssueDate(doc.IssuedAt); ok {
			y, m, _ := issued.Date()
			if y == year && m == mon {
				stats.MonthCount++
				month = month.Add(value)
			}
		}

		switch CanonicalStatus(doc.Status) {
		case "active":
			stats.Active++
		case "canceled":
			stats.Canceled++
		case "voided":
			stats.Voided++
		case "denied":
			stats.Denied++
		}
	}

	stats.Value = total.StringFixed(2)
	stats.Invoices.Value = invoices.StringFixed(2)
	stats.Waybills.Value = waybills.StringFixed(2)
	stats.MonthValue = month.StringFixed(2)
	return stats
}
