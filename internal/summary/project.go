// Package summary projects decoded fiscal documents into a single read model
// and filters and aggregates collections of it. Everything here is pure.
package summary

import (
	"time"

	"fiscal/pkg/models"
)

// Document statuses, in the inflection each family uses. Invoices (a "nota")
// take the feminine form, waybills (a "conhecimento") the masculine one.
const (
	StatusActiveInvoice   = "ativa"
	StatusActiveWaybill   = "ativo"
	StatusCanceledInvoice = "cancelada"
	StatusCanceledWaybill = "cancelado"
	StatusVoidedInvoice   = "inutilizada"
	StatusVoidedWaybill   = "inutilizado"
	StatusDeniedInvoice   = "denegada"
	StatusDeniedWaybill   = "denegado"
)

// Project builds the summary of a document with a fresh ledger status.
func Project(doc *models.Document) models.Summary {
	if doc == nil {
		return models.Summary{}
	}
	return ProjectWithStatus(doc, models.NewLedgerStatus(doc.Family, time.Time{}))
}

// ProjectWithStatus builds the summary of a document joined with its ledger
// status. The result depends only on its inputs.
func ProjectWithStatus(doc *models.Document, status models.LedgerStatus) models.Summary {
	if doc == nil {
		return models.Summary{}
	}

	var s models.Summary
	switch {
	case doc.Invoice != nil:
		s = projectInvoice(doc.Invoice)
		stock := false
		if status.StockPosted != nil {
			stock = *status.StockPosted
		}
		s.StockPosted = &stock
	case doc.Waybill != nil:
		s = projectWaybill(doc.Waybill)
	default:
		return models.Summary{}
	}

	s.Accounted = status.Accounted
	s.PayablesPosted = status.PayablesPosted
	return s
}

func projectInvoice(inv *models.Invoice) models.Summary {
	cfop := ""
	if len(inv.Items) > 0 {
		cfop = inv.Items[0].Product.CFOP
	}
	return models.Summary{
		Family:         models.FamilyInvoice,
		Number:         inv.Identification.Number,
		Series:         inv.Identification.Series,
		AccessKey:      inv.AccessKey,
		IssuedAt:       inv.Identification.IssuedAt,
		IssuerName:     inv.Issuer.Name,
		IssuerTaxID:    inv.Issuer.TaxID(),
		RecipientName:  inv.Recipient.Name,
		RecipientTaxID: inv.Recipient.TaxID(),
		Total:          inv.Totals.Invoice,
		Status:         StatusFor(models.FamilyInvoice, inv.Protocol),
		CFOP:           cfop,
	}
}

func projectWaybill(cte *models.Waybill) models.Summary {
	s := models.Summary{
		Family:      models.FamilyWaybill,
		Number:      cte.Identification.Number,
		Series:      cte.Identification.Series,
		AccessKey:   cte.AccessKey,
		IssuedAt:    cte.Identification.IssuedAt,
		IssuerName:  cte.Issuer.Name,
		IssuerTaxID: cte.Issuer.TaxID(),
		Total:       cte.ServiceValue.Total,
		Status:      StatusFor(models.FamilyWaybill, cte.Protocol),
		CFOP:        cte.Identification.CFOP,
	}
	if cte.Recipient != nil {
		s.RecipientName = cte.Recipient.Name
		s.RecipientTaxID = cte.Recipient.TaxID()
	}
	return s
}

// StatusFor derives the status from the authorization protocol's cStat.
// Cancellations are 101, 135, 151 and 155. Denials are 110, 205 and 301 to
// 303. 102 marks a voided number range. Anything else is active, as is a
// document without a protocol.
func StatusFor(family models.Family, prot *models.Protocol) string {
	code := ""
	if prot != nil {
		code = prot.StatusCode
	}

	feminine := family == models.FamilyInvoice
	pick := func(invoice, waybill string) string {
		if feminine {
			return invoice
		}
		return waybill
	}

	switch code {
	case "101", "135", "151", "155":
		return pick(StatusCanceledInvoice, StatusCanceledWaybill)
	case "102":
		return pick(StatusVoidedInvoice, StatusVoidedWaybill)
	case "110", "205", "301", "302", "303":
		return pick(StatusDeniedInvoice, StatusDeniedWaybill)
	default:
		return pick(StatusActiveInvoice, StatusActiveWaybill)
	}
}
