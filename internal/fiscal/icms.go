package fiscal

import (
	"github.com/beevik/etree"

	"fiscal/internal/xmltree"
	"fiscal/pkg/models"
)

// Known ICMS variant containers of an invoice line item, in probe order.
var invoiceICMSVariants = []string{
	"ICMS00", "ICMS02", "ICMS10", "ICMS15", "ICMS20", "ICMS30",
	"ICMS40", "ICMS41", "ICMS50", "ICMS51", "ICMS53", "ICMS60",
	"ICMS61", "ICMS70", "ICMS90", "ICMSPart", "ICMSST",
	"ICMSSN101", "ICMSSN102", "ICMSSN201", "ICMSSN202",
	"ICMSSN500", "ICMSSN900",
}

// Known ICMS variant containers of a waybill, in probe order.
var waybillICMSVariants = []string{
	"ICMS00", "ICMS20", "ICMS45", "ICMS60", "ICMS90",
	"ICMSOutraUF", "ICMSSN",
}

var (
	ipiRegimes    = []string{"IPITrib", "IPINT"}
	pisRegimes    = []string{"PISAliq", "PISQtde", "PISNT", "PISOutr"}
	cofinsRegimes = []string{"COFINSAliq", "COFINSQtde", "COFINSNT", "COFINSOutr"}
)

// selectVariant returns the first direct child of container whose name is in
// variants. An unlisted child is accepted as a last resort so that a newer
// layout still decodes.
func selectVariant(container *etree.Element, variants []string) *etree.Element {
	if container == nil {
		return nil
	}
	for _, name := range variants {
		if el := xmltree.Child(container, name); el != nil {
			return el
		}
	}
	return xmltree.FirstChild(container)
}

func decodeItemICMS(imposto *etree.Element) models.ICMS {
	variant := selectVariant(xmltree.Child(imposto, "ICMS"), invoiceICMSVariants)
	if variant == nil {
		return models.ICMS{}
	}
	d := func(tag string) models.Decimal { return decimalText(variant, tag) }
	return models.ICMS{
		Variant:           variant.Tag,
		Origin:            xmltree.ChildText(variant, "orig"),
		CST:               xmltree.ChildText(variant, "CST"),
		CSOSN:             xmltree.ChildText(variant, "CSOSN"),
		BaseMode:          xmltree.ChildText(variant, "modBC"),
		BaseReduction:     d("pRedBC"),
		Base:              d("vBC"),
		Rate:              d("pICMS"),
		Value:             d("vICMS"),
		FCPBase:           d("vBCFCP"),
		FCPRate:           d("pFCP"),
		FCPValue:          d("vFCP"),
		STBaseMode:        xmltree.ChildText(variant, "modBCST"),
		STMarginRate:      d("pMVAST"),
		STBaseReduction:   d("pRedBCST"),
		STBase:            d("vBCST"),
		STRate:            d("pICMSST"),
		STValue:           d("vICMSST"),
		ExemptValue:       d("vICMSDeson"),
		ExemptReason:      xmltree.ChildText(variant, "motDesICMS"),
		SimpleCreditRate:  d("pCredSN"),
		SimpleCreditValue: d("vCredICMSSN"),
	}
}

func decodeItemIPI(imposto *etree.Element) *models.IPI {
	ipi := xmltree.Child(imposto, "IPI")
	if ipi == nil {
		return nil
	}
	out := &models.IPI{
		Framework:    xmltree.ChildText(ipi, "cEnq"),
		ProducerCNPJ: xmltree.ChildText(ipi, "CNPJProd"),
	}
	for _, name := range ipiRegimes {
		regime := xmltree.Child(ipi, name)
		if regime == nil {
			continue
		}
		out.Regime = name
		out.CST = xmltree.ChildText(regime, "CST")
		out.Base = decimalText(regime, "vBC")
		out.Rate = decimalText(regime, "pIPI")
		out.Value = decimalText(regime, "vIPI")
		break
	}
	return out
}

func decodeContribution(imposto *etree.Element, tax string, regimes []string) *models.Contribution {
	container := xmltree.Child(imposto, tax)
	if container == nil {
		return nil
	}
	regime := selectVariant(container, regimes)
	if regime == nil {
		return &models.Contribution{}
	}
	return &models.Contribution{
		Regime:       regime.Tag,
		CST:          xmltree.ChildText(regime, "CST"),
		Base:         decimalText(regime, "vBC"),
		Rate:         decimalText(regime, "p"+tax),
		Value:        decimalText(regime, "v"+tax),
		BaseQuantity: decimalText(regime, "qBCProd"),
		QuantityRate: decimalText(regime, "vAliqProd"),
	}
}

func decodeWaybillICMS(imp *etree.Element) models.WaybillICMS {
	variant := selectVariant(xmltree.Child(imp, "ICMS"), waybillICMSVariants)
	if variant == nil {
		return models.WaybillICMS{}
	}
	out := models.WaybillICMS{
		Variant:        variant.Tag,
		CST:            xmltree.ChildText(variant, "CST"),
		BaseReduction:  decimalText(variant, "pRedBC"),
		Base:           decimalText(variant, "vBC"),
		Rate:           decimalText(variant, "pICMS"),
		Value:          decimalText(variant, "vICMS"),
		Credit:         decimalText(variant, "vCred"),
		SimpleNational: xmltree.ChildText(variant, "indSN"),
	}
	// ICMSOutraUF names its fields after the other state.
	if variant.Tag == "ICMSOutraUF" {
		out.BaseReduction = decimalText(variant, "pRedBCOutraUF")
		out.Base = decimalText(variant, "vBCOutraUF")
		out.Rate = decimalText(variant, "pICMSOutraUF")
		out.Value = decimalText(variant, "vICMSOutraUF")
	}
	return out
}

func decimalText(node *etree.Element, tag string) models.Decimal {
	return models.NewDecimal(xmltree.Text(node, tag))
}
