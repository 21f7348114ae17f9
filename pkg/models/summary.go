package models

import "time"

// Family identifies which of the two document families a record belongs to.
type Family string

const (
	FamilyInvoice Family = "nfe"
	FamilyWaybill Family = "cte"
)

// Document is a decoded record of either family. Exactly one of Invoice and
// Waybill is set, matching Family.
type Document struct {
	Family  Family   `json:"family"`
	Invoice *Invoice `json:"invoice,omitempty"`
	Waybill *Waybill `json:"waybill,omitempty"`
}

// AccessKey returns the access key of whichever record is set.
func (d Document) AccessKey() string {
	switch {
	case d.Invoice != nil:
		return d.Invoice.AccessKey
	case d.Waybill != nil:
		return d.Waybill.AccessKey
	default:
		return ""
	}
}

// Summary is the unified read-model row shared by both families. It is
// always recomputed from the source record.
type Summary struct {
	ID        string `json:"id"`
	Family    Family `json:"family"`
	Number    string `json:"number"`
	Series    string `json:"series"`
	AccessKey string `json:"access_key"`

	IssuedAt  string     `json:"issued_at"`
	EnteredAt *time.Time `json:"entered_at,omitempty"`

	IssuerName     string `json:"issuer_name"`
	IssuerTaxID    string `json:"issuer_tax_id"`
	RecipientName  string `json:"recipient_name"`
	RecipientTaxID string `json:"recipient_tax_id"`

	Total  Decimal `json:"total"`
	Status string  `json:"status"`
	CFOP   string  `json:"cfop"`

	Accounted      bool  `json:"accounted"`
	StockPosted    *bool `json:"stock_posted,omitempty"` // nil for waybills
	PayablesPosted bool  `json:"payables_posted"`
}

// LedgerStatus holds the bookkeeping flags of a document. It is kept apart
// from the decoded record and replaced as a whole on every change.
type LedgerStatus struct {
	Accounted      bool      `json:"accounted"`
	StockPosted    *bool     `json:"stock_posted,omitempty"`
	PayablesPosted bool      `json:"payables_posted"`
	Notes          string    `json:"notes,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedBy      string    `json:"updated_by,omitempty"`
}

// LedgerPatch changes selected flags of a LedgerStatus. Nil fields are kept.
type LedgerPatch struct {
	Accounted      *bool   `json:"accounted,omitempty"`
	StockPosted    *bool   `json:"stock_posted,omitempty"`
	PayablesPosted *bool   `json:"payables_posted,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Apply returns a new status with the patch applied. The receiver is not
// modified. StockPosted is only kept for invoices.
func (s LedgerStatus) Apply(p LedgerPatch, family Family, by string, at time.Time) LedgerStatus {
	next := s
	if s.StockPosted != nil {
		v := *s.StockPosted
		next.StockPosted = &v
	}
	if p.Accounted != nil {
		next.Accounted = *p.Accounted
	}
	if p.PayablesPosted != nil {
		next.PayablesPosted = *p.PayablesPosted
	}
	if p.StockPosted != nil && family == FamilyInvoice {
		v := *p.StockPosted
		next.StockPosted = &v
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if family != FamilyInvoice {
		next.StockPosted = nil
	}
	next.UpdatedAt = at
	next.UpdatedBy = by
	return next
}

// NewLedgerStatus returns the initial status for a freshly imported document.
func NewLedgerStatus(family Family, at time.Time) LedgerStatus {
	s := LedgerStatus{UpdatedAt: at}
	if family == FamilyInvoice {
		posted := false
		s.StockPosted = &posted
	}
	return s
}
