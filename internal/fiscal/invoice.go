package fiscal

import (
	"strings"

	"github.com/beevik/etree"

	"fiscal/internal/xmltree"
	"fiscal/pkg/models"
)

// DecodeInvoice builds an Invoice from a tree holding an nfeProc or a bare NFe.
// The identification, issuer, recipient and totals blocks are required.
func DecodeInvoice(root *etree.Element) (*models.Invoice, error) {
	const op = "DecodeInvoice"

	inf := xmltree.FirstOrSelf(root, "infNFe")
	if inf == nil {
		return nil, NewDecodeError(op, missingSection(models.FamilyInvoice, "infNFe"), "")
	}
	for _, section := range []string{"ide", "emit", "dest", "total"} {
		if xmltree.Child(inf, section) == nil {
			return nil, NewDecodeError(op, missingSection(models.FamilyInvoice, section), "")
		}
	}

	inv := &models.Invoice{
		AccessKey:      strings.TrimPrefix(xmltree.OwnAttr(inf, "Id"), "NFe"),
		Version:        xmltree.OwnAttr(inf, "versao"),
		Identification: decodeInvoiceIdentification(xmltree.Child(inf, "ide")),
		Issuer:         decodeParty(xmltree.Child(inf, "emit"), "enderEmit"),
		Recipient:      decodeParty(xmltree.Child(inf, "dest"), "enderDest"),
		Totals:         decodeInvoiceTotals(xmltree.First(xmltree.Child(inf, "total"), "ICMSTot")),
		Transport:      decodeTransport(xmltree.Child(inf, "transp")),
		Billing:        decodeBilling(xmltree.Child(inf, "cobr")),
		Payments:       decodePayments(xmltree.Child(inf, "pag")),
		Notes:          decodeAdditionalInfo(xmltree.Child(inf, "infAdic")),
	}

	for _, det := range xmltree.Children(inf, "det") {
		inv.Items = append(inv.Items, decodeLineItem(det))
	}
	for _, aut := range xmltree.Children(inf, "autXML") {
		inv.AuthorizedXML = append(inv.AuthorizedXML, decodePartyID(aut))
	}

	inv.Protocol = decodeProtocol(xmltree.First(root, "protNFe"), "chNFe")
	if inv.AccessKey == "" && inv.Protocol != nil {
		inv.AccessKey = inv.Protocol.AccessKey
	}

	return inv, nil
}

func decodeInvoiceIdentification(ide *etree.Element) models.InvoiceIdentification {
	t := func(tag string) string { return xmltree.ChildText(ide, tag) }
	issued := t("dhEmi")
	if issued == "" {
		// layout 2.00 carried a date without time
		issued = t("dEmi")
	}
	exit := t("dhSaiEnt")
	if exit == "" {
		exit = t("dSaiEnt")
	}
	return models.InvoiceIdentification{
		StateCode:        t("cUF"),
		NumericCode:      t("cNF"),
		OperationNature:  t("natOp"),
		Model:            t("mod"),
		Series:           t("serie"),
		Number:           t("nNF"),
		IssuedAt:         issued,
		ExitEntryAt:      exit,
		OperationType:    t("tpNF"),
		DestinationID:    t("idDest"),
		MunicipalityCode: t("cMunFG"),
		PrintType:        t("tpImp"),
		EmissionType:     t("tpEmis"),
		CheckDigit:       t("cDV"),
		Environment:      t("tpAmb"),
		Purpose:          t("finNFe"),
		FinalConsumer:    t("indFinal"),
		Presence:         t("indPres"),
		EmissionProcess:  t("procEmi"),
		ProcessVersion:   t("verProc"),
	}
}

func decodePartyID(node *etree.Element) models.PartyID {
	return models.PartyID{
		CNPJ:      xmltree.ChildText(node, "CNPJ"),
		CPF:       xmltree.ChildText(node, "CPF"),
		ForeignID: xmltree.ChildText(node, "idEstrangeiro"),
	}
}

// decodeParty reads a participant block. addressTag names its address child,
// which differs per role (enderEmit, enderDest, enderReme, ...).
func decodeParty(node *etree.Element, addressTag string) models.Party {
	t := func(tag string) string { return xmltree.ChildText(node, tag) }
	p := models.Party{
		PartyID:           decodePartyID(node),
		Name:              t("xNome"),
		TradeName:         t("xFant"),
		StateRegistration: t("IE"),
		IEIndicator:       t("indIEDest"),
		SubstituteIE:      t("IEST"),
		MunicipalReg:      t("IM"),
		CNAE:              t("CNAE"),
		TaxRegime:         t("CRT"),
		Suframa:           t("ISUF"),
		Email:             t("email"),
		Phone:             t("fone"),
	}
	if addr := xmltree.Child(node, addressTag); addr != nil {
		p.Address = decodeAddress(addr)
	}
	return p
}

func decodeAddress(node *etree.Element) *models.Address {
	t := func(tag string) string { return xmltree.ChildText(node, tag) }
	return &models.Address{
		Street:           t("xLgr"),
		Number:           t("nro"),
		Complement:       t("xCpl"),
		District:         t("xBairro"),
		MunicipalityCode: t("cMun"),
		Municipality:     t("xMun"),
		State:            t("UF"),
		PostalCode:       t("CEP"),
		CountryCode:      t("cPais"),
		Country:          t("xPais"),
		Phone:            t("fone"),
	}
}

func decodeLineItem(det *etree.Element) models.LineItem {
	prod := xmltree.Child(det, "prod")
	t := func(tag string) string { return xmltree.ChildText(prod, tag) }
	d := func(tag string) models.Decimal { return models.NewDecimal(xmltree.ChildText(prod, tag)) }

	imposto := xmltree.Child(det, "imposto")
	return models.LineItem{
		Number: xmltree.OwnAttr(det, "nItem"),
		Product: models.Product{
			Code:             t("cProd"),
			EAN:              t("cEAN"),
			Description:      t("xProd"),
			NCM:              t("NCM"),
			CEST:             t("CEST"),
			CFOP:             t("CFOP"),
			Unit:             t("uCom"),
			Quantity:         d("qCom"),
			UnitValue:        d("vUnCom"),
			TotalValue:       d("vProd"),
			TaxableEAN:       t("cEANTrib"),
			TaxableUnit:      t("uTrib"),
			TaxableQuantity:  d("qTrib"),
			TaxableUnitValue: d("vUnTrib"),
			Freight:          d("vFrete"),
			Insurance:        d("vSeg"),
			Discount:         d("vDesc"),
			Other:            d("vOutro"),
			CountsInTotal:    t("indTot"),
			OrderNumber:      t("xPed"),
			OrderItem:        t("nItemPed"),
		},
		Taxes: models.TaxBlock{
			TotalTaxes: models.NewDecimal(xmltree.ChildText(imposto, "vTotTrib")),
			ICMS:       decodeItemICMS(imposto),
			IPI:        decodeItemIPI(imposto),
			PIS:        decodeContribution(imposto, "PIS", pisRegimes),
			COFINS:     decodeContribution(imposto, "COFINS", cofinsRegimes),
		},
		AdditionalInfo: xmltree.ChildText(det, "infAdProd"),
	}
}

func decodeInvoiceTotals(tot *etree.Element) models.InvoiceTotals {
	d := func(tag string) models.Decimal { return models.NewDecimal(xmltree.ChildText(tot, tag)) }
	return models.InvoiceTotals{
		ICMSBase:         d("vBC"),
		ICMS:             d("vICMS"),
		ICMSExempt:       d("vICMSDeson"),
		FCPDestination:   d("vFCPUFDest"),
		ICMSDestination:  d("vICMSUFDest"),
		ICMSSender:       d("vICMSUFRemet"),
		FCP:              d("vFCP"),
		STBase:           d("vBCST"),
		ST:               d("vST"),
		FCPST:            d("vFCPST"),
		FCPSTWithheld:    d("vFCPSTRet"),
		Products:         d("vProd"),
		Freight:          d("vFrete"),
		Insurance:        d("vSeg"),
		Discount:         d("vDesc"),
		ImportTax:        d("vII"),
		IPI:              d("vIPI"),
		IPIReturned:      d("vIPIDevol"),
		PIS:              d("vPIS"),
		COFINS:           d("vCOFINS"),
		Other:            d("vOutro"),
		Invoice:          d("vNF"),
		ApproximateTaxes: d("vTotTrib"),
	}
}

func decodeTransport(transp *etree.Element) models.Transport {
	out := models.Transport{FreightMode: xmltree.ChildText(transp, "modFrete")}
	if carrier := xmltree.Child(transp, "transporta"); carrier != nil {
		t := func(tag string) string { return xmltree.ChildText(carrier, tag) }
		out.Carrier = &models.Carrier{
			PartyID:           decodePartyID(carrier),
			Name:              t("xNome"),
			StateRegistration: t("IE"),
			Address:           t("xEnder"),
			Municipality:      t("xMun"),
			State:             t("UF"),
		}
	}
	for _, vol := range xmltree.Children(transp, "vol") {
		out.Volumes = append(out.Volumes, models.Volume{
			Quantity:    xmltree.ChildText(vol, "qVol"),
			Species:     xmltree.ChildText(vol, "esp"),
			Brand:       xmltree.ChildText(vol, "marca"),
			Numbering:   xmltree.ChildText(vol, "nVol"),
			NetWeight:   models.NewDecimal(xmltree.ChildText(vol, "pesoL")),
			GrossWeight: models.NewDecimal(xmltree.ChildText(vol, "pesoB")),
		})
	}
	return out
}

func decodeBilling(cobr *etree.Element) *models.Billing {
	if cobr == nil {
		return nil
	}
	out := &models.Billing{}
	if fat := xmltree.Child(cobr, "fat"); fat != nil {
		out.Invoice = &models.BillingInvoice{
			Number:   xmltree.ChildText(fat, "nFat"),
			Original: models.NewDecimal(xmltree.ChildText(fat, "vOrig")),
			Discount: models.NewDecimal(xmltree.ChildText(fat, "vDesc")),
			Net:      models.NewDecimal(xmltree.ChildText(fat, "vLiq")),
		}
	}
	for _, dup := range xmltree.Children(cobr, "dup") {
		out.Duplicates = append(out.Duplicates, models.Duplicate{
			Number:  xmltree.ChildText(dup, "nDup"),
			DueDate: xmltree.ChildText(dup, "dVenc"),
			Value:   models.NewDecimal(xmltree.ChildText(dup, "vDup")),
		})
	}
	return out
}

func decodePayments(pag *etree.Element) []models.Payment {
	if pag == nil {
		return nil
	}
	change := models.NewDecimal(xmltree.ChildText(pag, "vTroco"))
	var out []models.Payment
	for _, det := range xmltree.Children(pag, "detPag") {
		p := models.Payment{
			Indicator:   xmltree.ChildText(det, "indPag"),
			Method:      xmltree.ChildText(det, "tPag"),
			Description: xmltree.ChildText(det, "xPag"),
			Value:       models.NewDecimal(xmltree.ChildText(det, "vPag")),
			Change:      change,
		}
		if card := xmltree.Child(det, "card"); card != nil {
			p.Card = &models.Card{
				IntegrationType: xmltree.ChildText(card, "tpIntegra"),
				AcquirerCNPJ:    xmltree.ChildText(card, "CNPJ"),
				Brand:           xmltree.ChildText(card, "tBand"),
				Authorization:   xmltree.ChildText(card, "cAut"),
			}
		}
		out = append(out, p)
	}
	return out
}

func decodeAdditionalInfo(node *etree.Element) *models.AdditionalInfo {
	if node == nil {
		return nil
	}
	return &models.AdditionalInfo{
		Fiscal:       xmltree.ChildText(node, "infAdFisco"),
		Complement:   xmltree.ChildText(node, "infCpl"),
		Observations: decodeObservations(node, "obsCont"),
	}
}

func decodeObservations(node *etree.Element, tag string) []models.Observation {
	var out []models.Observation
	for _, obs := range xmltree.Children(node, tag) {
		out = append(out, models.Observation{
			Field: xmltree.OwnAttr(obs, "xCampo"),
			Text:  xmltree.ChildText(obs, "xTexto"),
		})
	}
	return out
}

// decodeProtocol reads a protNFe or protCTe block. keyTag is chNFe or chCTe.
func decodeProtocol(prot *etree.Element, keyTag string) *models.Protocol {
	if prot == nil {
		return nil
	}
	info := xmltree.Child(prot, "infProt")
	if info == nil {
		info = prot
	}
	t := func(tag string) string { return xmltree.ChildText(info, tag) }
	return &models.Protocol{
		Environment: t("tpAmb"),
		AppVersion:  t("verAplic"),
		AccessKey:   t(keyTag),
		ReceivedAt:  t("dhRecbto"),
		Number:      t("nProt"),
		Digest:      t("digVal"),
		StatusCode:  t("cStat"),
		Reason:      t("xMotivo"),
	}
}
