package fiscal

import (
	"strings"

	"github.com/beevik/etree"

	"fiscal/internal/xmltree"
	"fiscal/pkg/models"
)

// DecodeWaybill builds a Waybill from a tree holding a cteProc or a bare CTe.
// The identification, issuer and service value blocks are required.
func DecodeWaybill(root *etree.Element) (*models.Waybill, error) {
	const op = "DecodeWaybill"

	inf := xmltree.FirstOrSelf(root, "infCte")
	if inf == nil {
		return nil, NewDecodeError(op, missingSection(models.FamilyWaybill, "infCte"), "")
	}
	for _, section := range []string{"ide", "emit", "vPrest"} {
		if xmltree.Child(inf, section) == nil {
			return nil, NewDecodeError(op, missingSection(models.FamilyWaybill, section), "")
		}
	}

	cte := &models.Waybill{
		AccessKey:      strings.TrimPrefix(xmltree.OwnAttr(inf, "Id"), "CTe"),
		Version:        xmltree.OwnAttr(inf, "versao"),
		Identification: decodeWaybillIdentification(xmltree.Child(inf, "ide")),
		Complement:     decodeComplement(xmltree.Child(inf, "compl")),
		Issuer:         decodeParty(xmltree.Child(inf, "emit"), "enderEmit"),
		Sender:         optionalParty(xmltree.Child(inf, "rem"), "enderReme"),
		Shipper:        optionalParty(xmltree.Child(inf, "exped"), "enderExped"),
		Receiver:       optionalParty(xmltree.Child(inf, "receb"), "enderReceb"),
		Recipient:      optionalParty(xmltree.Child(inf, "dest"), "enderDest"),
		ServiceValue:   decodeServiceValue(xmltree.Child(inf, "vPrest")),
		Taxes:          decodeWaybillTaxes(xmltree.Child(inf, "imp")),
	}

	norm := xmltree.Child(inf, "infCTeNorm")
	cte.Cargo = decodeCargo(xmltree.Child(norm, "infCarga"))
	for _, ref := range xmltree.All(xmltree.Child(norm, "infDoc"), "infNFe") {
		cte.ReferencedInvoices = append(cte.ReferencedInvoices, models.ReferencedInvoice{
			AccessKey:    xmltree.ChildText(ref, "chave"),
			PIN:          xmltree.ChildText(ref, "PIN"),
			ExpectedDate: xmltree.ChildText(ref, "dPrev"),
		})
	}

	cte.Protocol = decodeProtocol(xmltree.First(root, "protCTe"), "chCTe")
	if cte.AccessKey == "" && cte.Protocol != nil {
		cte.AccessKey = cte.Protocol.AccessKey
	}

	return cte, nil
}

func decodeWaybillIdentification(ide *etree.Element) models.WaybillIdentification {
	t := func(tag string) string { return xmltree.ChildText(ide, tag) }
	out := models.WaybillIdentification{
		StateCode:       t("cUF"),
		NumericCode:     t("cCT"),
		CFOP:            t("CFOP"),
		OperationNature: t("natOp"),
		Model:           t("mod"),
		Series:          t("serie"),
		Number:          t("nCT"),
		IssuedAt:        t("dhEmi"),
		PrintType:       t("tpImp"),
		EmissionType:    t("tpEmis"),
		CheckDigit:      t("cDV"),
		Environment:     t("tpAmb"),
		WaybillType:     t("tpCTe"),
		EmissionProcess: t("procEmi"),
		ProcessVersion:  t("verProc"),
		Sending:         models.Municipality{Code: t("cMunEnv"), Name: t("xMunEnv"), State: t("UFEnv")},
		Modal:           t("modal"),
		ServiceType:     t("tpServ"),
		Origin:          models.Municipality{Code: t("cMunIni"), Name: t("xMunIni"), State: t("UFIni")},
		Destination:     models.Municipality{Code: t("cMunFim"), Name: t("xMunFim"), State: t("UFFim")},
		Pickup:          t("retira"),
		PickupDetail:    t("xDetRetira"),
		TakerIE:         t("indIEToma"),
	}
	if toma := xmltree.Child(ide, "toma3"); toma != nil {
		out.Taker = xmltree.ChildText(toma, "toma")
	} else if toma := xmltree.Child(ide, "toma4"); toma != nil {
		out.Taker = xmltree.ChildText(toma, "toma")
	}
	return out
}

func optionalParty(node *etree.Element, addressTag string) *models.Party {
	if node == nil {
		return nil
	}
	p := decodeParty(node, addressTag)
	return &p
}

func decodeComplement(compl *etree.Element) *models.Complement {
	if compl == nil {
		return nil
	}
	return &models.Complement{
		CargoFeature:   xmltree.ChildText(compl, "xCaracAd"),
		ServiceFeature: xmltree.ChildText(compl, "xCaracSer"),
		Observation:    xmltree.ChildText(compl, "xObs"),
		Observations:   decodeObservations(compl, "ObsCont"),
	}
}

func decodeServiceValue(vPrest *etree.Element) models.ServiceValue {
	out := models.ServiceValue{
		Total:      models.NewDecimal(xmltree.ChildText(vPrest, "vTPrest")),
		Receivable: models.NewDecimal(xmltree.ChildText(vPrest, "vRec")),
	}
	for _, comp := range xmltree.Children(vPrest, "Comp") {
		out.Components = append(out.Components, models.ValueComponent{
			Name:  xmltree.ChildText(comp, "xNome"),
			Value: models.NewDecimal(xmltree.ChildText(comp, "vComp")),
		})
	}
	return out
}

func decodeWaybillTaxes(imp *etree.Element) models.WaybillTaxes {
	return models.WaybillTaxes{
		ICMS:        decodeWaybillICMS(imp),
		TotalTaxes:  models.NewDecimal(xmltree.ChildText(imp, "vTotTrib")),
		FiscalNotes: xmltree.ChildText(imp, "infAdFisco"),
	}
}

func decodeCargo(node *etree.Element) *models.Cargo {
	if node == nil {
		return nil
	}
	out := &models.Cargo{
		Value:        models.NewDecimal(xmltree.ChildText(node, "vCarga")),
		MainProduct:  xmltree.ChildText(node, "proPred"),
		OtherFeature: xmltree.ChildText(node, "xOutCat"),
	}
	for _, q := range xmltree.Children(node, "infQ") {
		out.Quantities = append(out.Quantities, models.CargoQuantity{
			Unit:     xmltree.ChildText(q, "cUnid"),
			Measure:  xmltree.ChildText(q, "tpMed"),
			Quantity: models.NewDecimal(xmltree.ChildText(q, "qCarga")),
		})
	}
	return out
}
