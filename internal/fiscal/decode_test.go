package fiscal_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fiscal/internal/fiscal"
	"fiscal/internal/fiscal/fiscaltest"
	"fiscal/pkg/models"
)

type DecodeSuite struct {
	suite.Suite
}

func TestDecodeSuite(t *testing.T) {
	suite.Run(t, new(DecodeSuite))
}

func (s *DecodeSuite) TestInvoice() {
	doc, err := fiscal.Decode(fiscaltest.Invoice(fiscaltest.Options{}))
	s.Require().NoError(err)
	s.Require().Equal(models.FamilyInvoice, doc.Family)
	s.Require().NotNil(doc.Invoice)
	s.Nil(doc.Waybill)

	inv := doc.Invoice
	s.Equal(fiscaltest.InvoiceKey, inv.AccessKey)
	s.Len(inv.AccessKey, 44)
	s.Equal("4.00", inv.Version)

	s.Run("identification", func() {
		ide := inv.Identification
		s.Equal("1234", ide.Number)
		s.Equal("1", ide.Series)
		s.Equal("55", ide.Model)
		s.Equal("2024-01-15T10:30:00-03:00", ide.IssuedAt)
		s.Equal("Venda de mercadoria", ide.OperationNature)
		s.Equal("1", ide.OperationType)
		s.Equal("1", ide.Purpose)
		s.Equal("0", ide.FinalConsumer)
	})

	s.Run("parties", func() {
		s.Equal("12345678000190", inv.Issuer.CNPJ)
		s.Equal("Metalurgica Exemplo Ltda", inv.Issuer.Name)
		s.Require().NotNil(inv.Issuer.Address)
		s.Equal("SP", inv.Issuer.Address.State)
		s.Equal("98765432000110", inv.Recipient.TaxID())
		s.Equal("RJ", inv.Recipient.Address.State)
		s.Equal("fiscal@destino.com.br", inv.Recipient.Email)
	})

	s.Run("line items keep order and text", func() {
		s.Require().Len(inv.Items, 2)
		first := inv.Items[0]
		s.Equal("1", first.Number)
		s.Equal("6102", first.Product.CFOP)
		s.Equal("10.0000", first.Product.Quantity.String())
		s.Equal("25.5000000000", first.Product.UnitValue.String())
		s.Equal("255.00", first.Product.TotalValue.String())
		s.Equal("Lote 42", first.AdditionalInfo)
		s.Equal("2", inv.Items[1].Number)
	})

	s.Run("item taxes", func() {
		first := inv.Items[0].Taxes
		s.Equal("ICMS00", first.ICMS.Variant)
		s.Equal("00", first.ICMS.Code())
		s.Equal("45.90", first.ICMS.Value.String())
		s.Require().NotNil(first.IPI)
		s.Equal("IPITrib", first.IPI.Regime)
		s.Equal("999", first.IPI.Framework)
		s.Equal("12.75", first.IPI.Value.String())
		s.Require().NotNil(first.PIS)
		s.Equal("PISAliq", first.PIS.Regime)
		s.Equal("1.65", first.PIS.Rate.String())
		s.Equal("19.38", first.COFINS.Value.String())

		second := inv.Items[1].Taxes
		s.Equal("ICMSSN102", second.ICMS.Variant)
		s.Equal("102", second.ICMS.Code())
		s.True(second.ICMS.Value.IsEmpty())
		s.Equal("IPINT", second.IPI.Regime)
		s.Equal("53", second.IPI.CST)
		s.Equal("PISNT", second.PIS.Regime)
		s.Equal("COFINSNT", second.COFINS.Regime)
	})

	s.Run("totals", func() {
		s.Equal("355.25", inv.Totals.Invoice.String())
		s.Equal("337.50", inv.Totals.Products.String())
		s.Equal("10.00", inv.Totals.Freight.String())
	})

	s.Run("optional sections", func() {
		s.Equal("0", inv.Transport.FreightMode)
		s.Require().NotNil(inv.Transport.Carrier)
		s.Equal("Transportes Rapidos Ltda", inv.Transport.Carrier.Name)
		s.Require().Len(inv.Transport.Volumes, 1)
		s.Equal("42.000", inv.Transport.Volumes[0].GrossWeight.String())

		s.Require().NotNil(inv.Billing)
		s.Equal("1234", inv.Billing.Invoice.Number)
		s.Len(inv.Billing.Duplicates, 2)
		s.Equal("177.63", inv.Billing.Duplicates[1].Value.String())

		s.Require().Len(inv.Payments, 1)
		s.Equal("15", inv.Payments[0].Method)

		s.Require().NotNil(inv.Notes)
		s.Equal("Pedido 998877", inv.Notes.Complement)
		s.Equal([]models.Observation{{Field: "Vendedor", Text: "Joao"}}, inv.Notes.Observations)

		s.Require().NotNil(inv.Protocol)
		s.Equal("100", inv.Protocol.StatusCode)
		s.Equal("135240000123456", inv.Protocol.Number)
	})
}

func (s *DecodeSuite) TestBareInvoiceHasNoProtocol() {
	doc, err := fiscal.Decode(fiscaltest.Invoice(fiscaltest.Options{NoProtocol: true}))
	s.Require().NoError(err)
	s.Equal(models.FamilyInvoice, doc.Family)
	s.Nil(doc.Invoice.Protocol)
	s.Equal(fiscaltest.InvoiceKey, doc.Invoice.AccessKey)
}

func (s *DecodeSuite) TestWaybill() {
	doc, err := fiscal.Decode(fiscaltest.Waybill(fiscaltest.Options{}))
	s.Require().NoError(err)
	s.Require().Equal(models.FamilyWaybill, doc.Family)
	s.Require().NotNil(doc.Waybill)
	s.Nil(doc.Invoice)

	cte := doc.Waybill
	s.Equal(fiscaltest.WaybillKey, cte.AccessKey)

	ide := cte.Identification
	s.Equal("456", ide.Number)
	s.Equal("6353", ide.CFOP)
	s.Equal("01", ide.Modal)
	s.Equal("road", ide.ModalName())
	s.Equal(models.Municipality{Code: "3550308", Name: "Sao Paulo", State: "SP"}, ide.Origin)
	s.Equal("PR", ide.Destination.State)
	s.Equal("0", ide.Taker)

	s.Equal("98765432000110", cte.Issuer.CNPJ)
	s.Require().NotNil(cte.Sender)
	s.Equal("Metalurgica Exemplo Ltda", cte.Sender.Name)
	s.Require().NotNil(cte.Recipient)
	s.Equal("Armazem Destino Ltda", cte.Recipient.Name)
	s.Nil(cte.Shipper)
	s.Nil(cte.Receiver)

	s.Equal("1500.00", cte.ServiceValue.Total.String())
	s.Equal([]models.ValueComponent{
		{Name: "FRETE PESO", Value: models.NewDecimal("1200.00")},
		{Name: "PEDAGIO", Value: models.NewDecimal("300.00")},
	}, cte.ServiceValue.Components)

	s.Equal("ICMS00", cte.Taxes.ICMS.Variant)
	s.Equal("180.00", cte.Taxes.ICMS.Value.String())

	s.Require().NotNil(cte.Cargo)
	s.Equal("Parafusos e arruelas", cte.Cargo.MainProduct)
	s.Require().Len(cte.Cargo.Quantities, 1)
	s.Equal("42.0000", cte.Cargo.Quantities[0].Quantity.String())

	s.Require().Len(cte.ReferencedInvoices, 1)
	s.Equal(fiscaltest.InvoiceKey, cte.ReferencedInvoices[0].AccessKey)

	s.Require().NotNil(cte.Complement)
	s.Equal("Carga seca", cte.Complement.CargoFeature)
	s.Require().NotNil(cte.Protocol)
	s.Equal(fiscaltest.WaybillKey, cte.Protocol.AccessKey)
}

func (s *DecodeSuite) TestWaybillWithoutRecipient() {
	doc, err := fiscal.Decode(fiscaltest.Waybill(fiscaltest.Options{NoRecipient: true, NoProtocol: true}))
	s.Require().NoError(err)
	s.Nil(doc.Waybill.Recipient)
	s.Nil(doc.Waybill.Protocol)
}

func TestDecodeFailures(t *testing.T) {
	invoice := fiscaltest.Invoice(fiscaltest.Options{})
	waybill := fiscaltest.Waybill(fiscaltest.Options{})

	tests := []struct {
		name    string
		raw     string
		want    error
		section string
	}{
		{name: "not xml", raw: "just some text", want: fiscal.ErrMalformedDocument},
		{name: "broken markup", raw: "<nfeProc><NFe attr=></NFe></nfeProc>", want: fiscal.ErrMalformedDocument},
		{name: "empty", raw: "", want: fiscal.ErrMalformedDocument},
		{name: "unknown root", raw: "<?xml version=\"1.0\"?><pedido><numero>1</numero></pedido>", want: fiscal.ErrUnrecognizedDocumentType},
		{name: "event envelope", raw: "<procEventoNFe><evento/></procEventoNFe>", want: fiscal.ErrUnrecognizedDocumentType},
		{name: "invoice without issuer", raw: dropElement(invoice, "emit"), want: fiscal.ErrMissingRequiredSection, section: "emit"},
		{name: "invoice without recipient", raw: fiscaltest.Invoice(fiscaltest.Options{NoRecipient: true}), want: fiscal.ErrMissingRequiredSection, section: "dest"},
		{name: "invoice without identification", raw: dropElement(invoice, "ide"), want: fiscal.ErrMissingRequiredSection, section: "ide"},
		{name: "invoice without totals", raw: dropElement(invoice, "total"), want: fiscal.ErrMissingRequiredSection, section: "total"},
		{name: "invoice without infNFe", raw: "<nfeProc><NFe></NFe></nfeProc>", want: fiscal.ErrMissingRequiredSection, section: "infNFe"},
		{name: "waybill without service value", raw: dropElement(waybill, "vPrest"), want: fiscal.ErrMissingRequiredSection, section: "vPrest"},
		{name: "waybill without issuer", raw: dropElement(waybill, "emit"), want: fiscal.ErrMissingRequiredSection, section: "emit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := fiscal.Decode(tt.raw)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.want)

			if tt.section != "" {
				var sectionErr *fiscal.SectionError
				require.True(t, errors.As(err, &sectionErr))
				assert.Equal(t, tt.section, sectionErr.Section)
			}
		})
	}
}

func TestICMSVariantProbing(t *testing.T) {
	variants := []string{"ICMS00", "ICMS10", "ICMS20", "ICMS40", "ICMS51", "ICMS60", "ICMS70", "ICMS90", "ICMSSN101", "ICMSSN500", "ICMSSN900"}
	base := fiscaltest.Invoice(fiscaltest.Options{})

	for _, variant := range variants {
		t.Run(variant, func(t *testing.T) {
			raw := strings.Replace(base,
				"<ICMS00><orig>0</orig><CST>00</CST><modBC>3</modBC><vBC>255.00</vBC><pICMS>18.00</pICMS><vICMS>45.90</vICMS></ICMS00>",
				"<"+variant+"><orig>1</orig><CST>77</CST><vBC>100.10</vBC><pICMS>7.00</pICMS><vICMS>7.01</vICMS><vICMSST>3.30</vICMSST></"+variant+">",
				1)

			doc, err := fiscal.Decode(raw)
			require.NoError(t, err)

			icms := doc.Invoice.Items[0].Taxes.ICMS
			assert.Equal(t, variant, icms.Variant)
			assert.Equal(t, "1", icms.Origin)
			assert.Equal(t, "100.10", icms.Base.String())
			assert.Equal(t, "7.01", icms.Value.String())
			assert.Equal(t, "3.30", icms.STValue.String())
		})
	}
}

func TestWaybillICMSOutraUF(t *testing.T) {
	raw := strings.Replace(fiscaltest.Waybill(fiscaltest.Options{}),
		"<ICMS00><CST>00</CST><vBC>1500.00</vBC><pICMS>12.00</pICMS><vICMS>180.00</vICMS></ICMS00>",
		"<ICMSOutraUF><CST>90</CST><vBCOutraUF>1500.00</vBCOutraUF><pICMSOutraUF>7.00</pICMSOutraUF><vICMSOutraUF>105.00</vICMSOutraUF></ICMSOutraUF>",
		1)

	doc, err := fiscal.Decode(raw)
	require.NoError(t, err)

	icms := doc.Waybill.Taxes.ICMS
	assert.Equal(t, "ICMSOutraUF", icms.Variant)
	assert.Equal(t, "90", icms.CST)
	assert.Equal(t, "105.00", icms.Value.String())
}

func TestDecodeReader(t *testing.T) {
	doc, err := fiscal.DecodeReader(strings.NewReader(fiscaltest.Waybill(fiscaltest.Options{})))
	require.NoError(t, err)
	assert.Equal(t, fiscaltest.WaybillKey, doc.AccessKey())
}

func TestFailureReason(t *testing.T) {
	_, err := fiscal.Decode("<x>")
	assert.Equal(t, "malformed", fiscal.FailureReason(err))

	_, err = fiscal.Decode("<x/>")
	assert.Equal(t, "unrecognized", fiscal.FailureReason(err))

	_, err = fiscal.Decode("<CTe><infCte/></CTe>")
	assert.Equal(t, "missing_section", fiscal.FailureReason(err))

	assert.Equal(t, "", fiscal.FailureReason(nil))
}

// dropElement removes the first <tag>...</tag> block from raw.
func dropElement(raw, tag string) string {
	start := strings.Index(raw, "<"+tag+">")
	end := strings.Index(raw, "</"+tag+">")
	if start < 0 || end < 0 {
		return raw
	}
	return raw[:start] + raw[end+len("</"+tag+">"):]
}
