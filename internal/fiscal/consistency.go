package fiscal

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fiscal/internal/logger"
	"fiscal/pkg/models"
)

// Discrepancy describes a declared total that does not match the sum of its parts.
type Discrepancy struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Declared string `json:"declared"`
	Message  string `json:"message"`
}

// ConsistencyCheck compares declared totals against the values they are made
// of. Decoding never runs it; callers opt in.
type ConsistencyCheck struct {
	// Tolerance is the largest absolute difference still accepted.
	Tolerance decimal.Decimal
	log       zerolog.Logger
}

// NewConsistencyCheck creates a check that accepts no difference at all.
func NewConsistencyCheck() *ConsistencyCheck {
	return &ConsistencyCheck{
		Tolerance: decimal.Zero,
		log:       logger.WithComponent("consistency"),
	}
}

// CheckConsistency runs a zero-tolerance check without logging.
func CheckConsistency(doc *models.Document) []Discrepancy {
	c := &ConsistencyCheck{Tolerance: decimal.Zero, log: zerolog.Nop()}
	return c.Check(doc)
}

// Check returns every discrepancy found. Unparsable values are reported as
// discrepancies, not errors.
func (c *ConsistencyCheck) Check(doc *models.Document) []Discrepancy {
	if doc == nil {
		return nil
	}

	var found []Discrepancy
	switch {
	case doc.Invoice != nil:
		found = c.checkInvoice(doc.Invoice)
	case doc.Waybill != nil:
		found = c.checkWaybill(doc.Waybill)
	}

	if len(found) > 0 {
		c.log.Warn().
			Str("access_key", doc.AccessKey()).
			Int("discrepancies", len(found)).
			Msg("Declared totals do not match their components")
	}
	return found
}

func (c *ConsistencyCheck) checkInvoice(inv *models.Invoice) []Discrepancy {
	t := inv.Totals
	var found []Discrepancy

	sum := newSum()
	sum.add(t.Products).
		sub(t.Discount).
		sub(t.ICMSExempt).
		add(t.ST).
		add(t.FCPST).
		add(t.Freight).
		add(t.Insurance).
		add(t.Other).
		add(t.ImportTax).
		add(t.IPI).
		add(t.IPIReturned)
	if d, ok := c.compare("vNF", sum, t.Invoice); !ok {
		found = append(found, d)
	}

	if len(inv.Items) > 0 {
		items := newSum()
		for _, item := range inv.Items {
			// indTot=0 items stay out of vProd
			if item.Product.CountsInTotal == "0" {
				continue
			}
			items.add(item.Product.TotalValue)
		}
		if d, ok := c.compare("vProd", items, t.Products); !ok {
			found = append(found, d)
		}
	}

	return found
}

func (c *ConsistencyCheck) checkWaybill(cte *models.Waybill) []Discrepancy {
	sv := cte.ServiceValue
	if len(sv.Components) == 0 {
		return nil
	}
	sum := newSum()
	for _, comp := range sv.Components {
		sum.add(comp.Value)
	}
	if d, ok := c.compare("vTPrest", sum, sv.Total); !ok {
		return []Discrepancy{d}
	}
	return nil
}

func (c *ConsistencyCheck) compare(field string, sum *decimalSum, declared models.Decimal) (Discrepancy, bool) {
	if sum.err != nil {
		return Discrepancy{Field: field, Declared: declared.String(), Message: sum.err.Error()}, false
	}
	value, err := declared.Value()
	if err != nil {
		return Discrepancy{Field: field, Expected: sum.total.String(), Declared: declared.String(), Message: err.Error()}, false
	}
	if sum.total.Sub(value).Abs().GreaterThan(c.Tolerance) {
		return Discrepancy{
			Field:    field,
			Expected: sum.total.StringFixed(2),
			Declared: declared.String(),
			Message:  fmt.Sprintf("%s declared as %s but components add up to %s", field, declared, sum.total.StringFixed(2)),
		}, false
	}
	return Discrepancy{}, true
}

// decimalSum accumulates Decimal texts, remembering the first parse failure.
type decimalSum struct {
	total decimal.Decimal
	err   error
}

func newSum() *decimalSum {
	return &decimalSum{total: decimal.Zero}
}

func (s *decimalSum) add(d models.Decimal) *decimalSum {
	return s.apply(d, decimal.Decimal.Add)
}

func (s *decimalSum) sub(d models.Decimal) *decimalSum {
	return s.apply(d, decimal.Decimal.Sub)
}

func (s *decimalSum) apply(d models.Decimal, f func(decimal.Decimal, decimal.Decimal) decimal.Decimal) *decimalSum {
	if s.err != nil {
		return s
	}
	v, err := d.Value()
	if err != nil {
		s.err = err
		return s
	}
	s.total = f(s.total, v)
	return s
}
