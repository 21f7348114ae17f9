package summary

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fiscal/pkg/models"
)

// Query parameter names understood by CriteriaFromValues.
const (
	ParamFamily         = "family"
	ParamStartDate      = "start_date"
	ParamEndDate        = "end_date"
	ParamNumber         = "number"
	ParamSeries         = "series"
	ParamAccessKey      = "access_key"
	ParamIssuerTaxID    = "issuer_tax_id"
	ParamIssuerName     = "issuer_name"
	ParamRecipientTaxID = "recipient_tax_id"
	ParamRecipientName  = "recipient_name"
	ParamCFOP           = "cfop"
	ParamMinValue       = "min_value"
	ParamMaxValue       = "max_value"
	ParamStatus         = "status"
	ParamAccounted      = "accounted"
	ParamStockPosted    = "stock_posted"
	ParamPayablesPosted = "payables_posted"
)

// CriteriaFromValues builds criteria from query-style values. A value that
// cannot be parsed marks the criteria Invalid instead of failing, so the
// filter simply returns nothing.
func CriteriaFromValues(v url.Values) Criteria {
	get := func(key string) string { return strings.TrimSpace(v.Get(key)) }

	c := Criteria{
		Number:         get(ParamNumber),
		Series:         get(ParamSeries),
		AccessKey:      get(ParamAccessKey),
		IssuerTaxID:    get(ParamIssuerTaxID),
		IssuerName:     get(ParamIssuerName),
		RecipientTaxID: get(ParamRecipientTaxID),
		RecipientName:  get(ParamRecipientName),
		CFOP:           get(ParamCFOP),
	}

	family, ok := ParseFamily(get(ParamFamily))
	c.Family = family
	c.Invalid = c.Invalid || !ok

	c.StartDate, c.StartTimed, ok = parseDateParam(get(ParamStartDate))
	c.Invalid = c.Invalid || !ok
	c.EndDate, c.EndTimed, ok = parseDateParam(get(ParamEndDate))
	c.Invalid = c.Invalid || !ok

	c.MinValue, ok = parseDecimalParam(get(ParamMinValue))
	c.Invalid = c.Invalid || !ok
	c.MaxValue, ok = parseDecimalParam(get(ParamMaxValue))
	c.Invalid = c.Invalid || !ok

	if status := get(ParamStatus); !IsAllStatus(status) {
		c.Status = status
	}

	c.Accounted, ok = parseBoolParam(get(ParamAccounted))
	c.Invalid = c.Invalid || !ok
	c.StockPosted, ok = parseBoolParam(get(ParamStockPosted))
	c.Invalid = c.Invalid || !ok
	c.PayablesPosted, ok = parseBoolParam(get(ParamPayablesPosted))
	c.Invalid = c.Invalid || !ok

	return c
}

// ParseFamily accepts the family codes and their English names. Empty and
// "all" selectors return "" with ok true.
func ParseFamily(s string) (models.Family, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todas", "todos":
		return "", true
	case "nfe", "invoice":
		return models.FamilyInvoice, true
	case "cte", "waybill":
		return models.FamilyWaybill, true
	default:
		return "", false
	}
}

// parseDateParam also reports whether s carried a time of day. Plain dates
// select whole calendar days.
func parseDateParam(s string) (*time.Time, bool, bool) {
	if s == "" {
		return nil, false, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, false, true
	}
	t, ok := ParseIssueDate(s)
	if !ok {
		return nil, false, false
	}
	return &t, true, true
}

func parseDecimalParam(s string) (*decimal.Decimal, bool) {
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil, false
	}
	return &d, true
}

func parseBoolParam(s string) (*bool, bool) {
	var v bool
	switch strings.ToLower(s) {
	case "", "all", "todos", "todas":
		return nil, true
	case "true", "1", "yes", "sim":
		v = true
	case "false", "0", "no", "nao", "não":
		v = false
	default:
		return nil, false
	}
	return &v, true
}
