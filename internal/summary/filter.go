package summary

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fiscal/pkg/models"
)

// Criteria selects summaries. Every field is optional: empty strings and nil
// pointers are absent and always pass. Present criteria are ANDed.
type Criteria struct {
	Family models.Family `json:"family,omitempty"`

	// Issue date range. Bounds are compared by calendar day and EndDate
	// includes its whole day, unless the matching *Timed flag is set: a bound
	// given with a time of day is compared as an instant.
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	StartTimed bool       `json:"-"`
	EndTimed   bool       `json:"-"`

	Number         string `json:"number,omitempty"`        // substring
	Series         string `json:"series,omitempty"`        // exact
	AccessKey      string `json:"access_key,omitempty"`    // substring
	IssuerTaxID    string `json:"issuer_tax_id,omitempty"` // digits only
	IssuerName     string `json:"issuer_name,omitempty"`   // substring, case and accent insensitive
	RecipientTaxID string `json:"recipient_tax_id,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	CFOP           string `json:"cfop,omitempty"`

	MinValue *decimal.Decimal `json:"min_value,omitempty"`
	MaxValue *decimal.Decimal `json:"max_value,omitempty"`

	// Status in either inflection ("ativa" also matches "ativo").
	Status string `json:"status,omitempty"`

	Accounted      *bool `json:"accounted,omitempty"`
	StockPosted    *bool `json:"stock_posted,omitempty"` // ignored for waybills
	PayablesPosted *bool `json:"payables_posted,omitempty"`

	// Invalid marks criteria that could not be parsed. Nothing matches them.
	Invalid bool `json:"-"`
}

// IsEmpty reports whether no criterion is present.
func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Filter returns the summaries matching c in their original order. The input
// is never modified.
func Filter(docs []models.Summary, c Criteria) []models.Summary {
	out := make([]models.Summary, 0, len(docs))
	for _, doc := range docs {
		if Matches(doc, c) {
			out = append(out, doc)
		}
	}
	return out
}

// Matches reports whether doc satisfies every present criterion.
func Matches(doc models.Summary, c Criteria) bool {
	if c.Invalid {
		return false
	}
	if c.Family != "" && doc.Family != c.Family {
		return false
	}
	if !matchDates(doc.IssuedAt, c) {
		return false
	}
	if !containsFold(doc.Number, c.Number) ||
		!containsFold(doc.AccessKey, c.AccessKey) ||
		!containsFold(doc.CFOP, c.CFOP) ||
		!containsFold(doc.IssuerName, c.IssuerName) ||
		!containsFold(doc.RecipientName, c.RecipientName) {
		return false
	}
	if c.Series != "" && strings.TrimSpace(doc.Series) != strings.TrimSpace(c.Series) {
		return false
	}
	if !containsDigits(doc.IssuerTaxID, c.IssuerTaxID) || !containsDigits(doc.RecipientTaxID, c.RecipientTaxID) {
		return false
	}
	if !matchValue(doc.Total, c.MinValue, c.MaxValue) {
		return false
	}
	if !IsAllStatus(c.Status) && !SameStatus(doc.Status, c.Status) {
		return false
	}
	if c.Accounted != nil && doc.Accounted != *c.Accounted {
		return false
	}
	if c.PayablesPosted != nil && doc.PayablesPosted != *c.PayablesPosted {
		return false
	}
	if c.StockPosted != nil && doc.Family == models.FamilyInvoice {
		posted := doc.StockPosted != nil && *doc.StockPosted
		if posted != *c.StockPosted {
			return false
		}
	}
	return true
}

func containsFold(value, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(fold(value), fold(query))
}

// fold lowercases with Unicode case folding and strips combining accents, so
// "SAO PAULO" matches "São Paulo".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

func containsDigits(value, query string) bool {
	q := digitsOnly(query)
	if q == "" {
		return true
	}
	return strings.Contains(digitsOnly(value), q)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchValue(total models.Decimal, min, max *decimal.Decimal) bool {
	if min == nil && max == nil {
		return true
	}
	v, err := total.Value()
	if err != nil || total.IsEmpty() {
		return false
	}
	if min != nil && v.LessThan(*min) {
		return false
	}
	if max != nil && v.GreaterThan(*max) {
		return false
	}
	return true
}

func matchDates(issuedAt string, c Criteria) bool {
	if c.StartDate == nil && c.EndDate == nil {
		return true
	}
	issued, ok := ParseIssueDate(issuedAt)
	if !ok {
		return false
	}
	day := civilDay(issued)
	if start := c.StartDate; start != nil {
		if c.StartTimed && issued.Before(*start) {
			return false
		}
		if !c.StartTimed && day < civilDay(*start) {
			return false
		}
	}
	if end := c.EndDate; end != nil {
		if c.EndTimed && issued.After(*end) {
			return false
		}
		if !c.EndTimed && day > civilDay(*end) {
			return false
		}
	}
	return true
}

// civilDay orders calendar dates as yyyymmdd in the time's own location.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

var issueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseIssueDate parses the timestamp formats found in issue date fields. The
// offset written in the document is kept, so Date() yields the issuer's day.
func ParseIssueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range issueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// canonicalStatus maps every spelling of a status to one stem.
var canonicalStatus = map[string]string{
	"ativa": "active", "ativo": "active", "active": "active", "autorizada": "active", "autorizado": "active",
	"cancelada": "canceled", "cancelado": "canceled", "canceled": "canceled", "cancelled": "canceled",
	"inutilizada": "voided", "inutilizado": "voided", "voided": "voided",
	"denegada": "denied", "denegado": "denied", "denied": "denied",
}

// SameStatus reports whether two status spellings mean the same thing,
// regardless of grammatical gender or case. Statuses outside the known set
// compare by their folded text.
func SameStatus(a, b string) bool {
	ca, cb := CanonicalStatus(a), CanonicalStatus(b)
	if ca != "" || cb != "" {
		return ca == cb
	}
	fa := fold(strings.TrimSpace(a))
	return fa != "" && fa == fold(strings.TrimSpace(b))
}

// CanonicalStatus returns the family-neutral status name, or "" when unknown.
func CanonicalStatus(s string) string {
	key := fold(strings.TrimSpace(s))
	if c, ok := canonicalStatus[key]; ok {
		return c
	}
	return ""
}

// IsAllStatus reports whether s is a "match everything" selector.
func IsAllStatus(s string) bool {
	switch fold(strings.TrimSpace(s)) {
	case "", "todas", "todos", "all":
		return true
	}
	return false
}
