package models

// Invoice is a decoded goods invoice (NFe). Records are immutable after decode.
type Invoice struct {
	// Core identifiers
	AccessKey string `json:"access_key"` // 44-digit chave de acesso
	Version   string `json:"version"`    // layout version (versao attribute)

	Identification InvoiceIdentification `json:"identification"`
	Issuer         Party                 `json:"issuer"`
	Recipient      Party                 `json:"recipient"`

	// Line items in document order
	Items []LineItem `json:"items"`

	Totals    InvoiceTotals `json:"totals"`
	Transport Transport     `json:"transport"`

	// Optional sections (nil when absent)
	Billing       *Billing        `json:"billing,omitempty"`
	Payments      []Payment       `json:"payments,omitempty"`
	Notes         *AdditionalInfo `json:"notes,omitempty"`
	AuthorizedXML []PartyID       `json:"authorized_xml,omitempty"`
	Protocol      *Protocol       `json:"protocol,omitempty"`
}

// InvoiceIdentification mirrors the ide block of an NFe.
type InvoiceIdentification struct {
	StateCode        string `json:"state_code"`         // cUF
	NumericCode      string `json:"numeric_code"`       // cNF
	OperationNature  string `json:"operation_nature"`   // natOp
	Model            string `json:"model"`              // mod (55 NFe, 65 NFCe)
	Series           string `json:"series"`             // serie
	Number           string `json:"number"`             // nNF
	IssuedAt         string `json:"issued_at"`          // dhEmi, verbatim
	ExitEntryAt      string `json:"exit_entry_at"`      // dhSaiEnt, verbatim
	OperationType    string `json:"operation_type"`     // tpNF (0 entry, 1 exit)
	DestinationID    string `json:"destination_id"`     // idDest
	MunicipalityCode string `json:"municipality_code"`  // cMunFG
	PrintType        string `json:"print_type"`         // tpImp
	EmissionType     string `json:"emission_type"`      // tpEmis
	CheckDigit       string `json:"check_digit"`        // cDV
	Environment      string `json:"environment"`        // tpAmb
	Purpose          string `json:"purpose"`            // finNFe
	FinalConsumer    string `json:"final_consumer"`     // indFinal
	Presence         string `json:"presence"`           // indPres
	EmissionProcess  string `json:"emission_process"`   // procEmi
	ProcessVersion   string `json:"process_version"`    // verProc
}

// Party is an issuer, recipient or other participant of a document.
type Party struct {
	PartyID
	Name               string   `json:"name"`                          // xNome
	TradeName          string   `json:"trade_name,omitempty"`          // xFant
	Address            *Address `json:"address,omitempty"`             // enderEmit, enderDest, ...
	StateRegistration  string   `json:"state_registration,omitempty"`  // IE
	IEIndicator        string   `json:"ie_indicator,omitempty"`        // indIEDest
	SubstituteIE       string   `json:"substitute_ie,omitempty"`       // IEST
	MunicipalReg       string   `json:"municipal_registration,omitempty"`
	CNAE               string   `json:"cnae,omitempty"`
	TaxRegime          string   `json:"tax_regime,omitempty"` // CRT
	Suframa            string   `json:"suframa,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
}

// PartyID holds the tax identifiers of a party. At most one is usually set.
type PartyID struct {
	CNPJ      string `json:"cnpj,omitempty"`
	CPF       string `json:"cpf,omitempty"`
	ForeignID string `json:"foreign_id,omitempty"` // idEstrangeiro
}

// TaxID returns the CNPJ, falling back to CPF and then the foreign id.
func (p PartyID) TaxID() string {
	switch {
	case p.CNPJ != "":
		return p.CNPJ
	case p.CPF != "":
		return p.CPF
	default:
		return p.ForeignID
	}
}

// Address is a Brazilian postal address block.
type Address struct {
	Street           string `json:"street"`            // xLgr
	Number           string `json:"number"`            // nro
	Complement       string `json:"complement,omitempty"`
	District         string `json:"district"`          // xBairro
	MunicipalityCode string `json:"municipality_code"` // cMun
	Municipality     string `json:"municipality"`      // xMun
	State            string `json:"state"`             // UF
	PostalCode       string `json:"postal_code"`       // CEP
	CountryCode      string `json:"country_code,omitempty"`
	Country          string `json:"country,omitempty"`
	Phone            string `json:"phone,omitempty"`
}

// LineItem is one det entry of an invoice.
type LineItem struct {
	Number         string   `json:"number"` // nItem attribute
	Product        Product  `json:"product"`
	Taxes          TaxBlock `json:"taxes"`
	AdditionalInfo string   `json:"additional_info,omitempty"` // infAdProd
}

// Product mirrors the prod block of a line item.
type Product struct {
	Code             string  `json:"code"`        // cProd
	EAN              string  `json:"ean"`         // cEAN
	Description      string  `json:"description"` // xProd
	NCM              string  `json:"ncm"`
	CEST             string  `json:"cest,omitempty"`
	CFOP             string  `json:"cfop"`
	Unit             string  `json:"unit"`           // uCom
	Quantity         Decimal `json:"quantity"`       // qCom
	UnitValue        Decimal `json:"unit_value"`     // vUnCom
	TotalValue       Decimal `json:"total_value"`    // vProd
	TaxableEAN       string  `json:"taxable_ean"`    // cEANTrib
	TaxableUnit      string  `json:"taxable_unit"`   // uTrib
	TaxableQuantity  Decimal `json:"taxable_quantity"`
	TaxableUnitValue Decimal `json:"taxable_unit_value"`
	Freight          Decimal `json:"freight"`   // vFrete
	Insurance        Decimal `json:"insurance"` // vSeg
	Discount         Decimal `json:"discount"`  // vDesc
	Other            Decimal `json:"other"`     // vOutro
	CountsInTotal    string  `json:"counts_in_total"` // indTot
	OrderNumber      string  `json:"order_number,omitempty"` // xPed
	OrderItem        string  `json:"order_item,omitempty"`   // nItemPed
}

// TaxBlock is the imposto block of a line item.
type TaxBlock struct {
	TotalTaxes Decimal       `json:"total_taxes"` // vTotTrib
	ICMS       ICMS          `json:"icms"`
	IPI        *IPI          `json:"ipi,omitempty"`
	PIS        *Contribution `json:"pis,omitempty"`
	COFINS     *Contribution `json:"cofins,omitempty"`
}

// ICMS holds exactly one ICMS variant. Variant names which container was
// present (ICMS00, ICMS20, ICMSSN102, ...); the fields are the superset of
// every variant's vocabulary and are empty where a variant does not use them.
type ICMS struct {
	Variant string `json:"variant"`

	Origin             string  `json:"origin"` // orig
	CST                string  `json:"cst,omitempty"`
	CSOSN              string  `json:"csosn,omitempty"`
	BaseMode           string  `json:"base_mode,omitempty"` // modBC
	BaseReduction      Decimal `json:"base_reduction"`      // pRedBC
	Base               Decimal `json:"base"`                // vBC
	Rate               Decimal `json:"rate"`                // pICMS
	Value              Decimal `json:"value"`               // vICMS
	FCPBase            Decimal `json:"fcp_base"`            // vBCFCP
	FCPRate            Decimal `json:"fcp_rate"`            // pFCP
	FCPValue           Decimal `json:"fcp_value"`           // vFCP
	STBaseMode         string  `json:"st_base_mode,omitempty"` // modBCST
	STMarginRate       Decimal `json:"st_margin_rate"`         // pMVAST
	STBaseReduction    Decimal `json:"st_base_reduction"`      // pRedBCST
	STBase             Decimal `json:"st_base"`                // vBCST
	STRate             Decimal `json:"st_rate"`                // pICMSST
	STValue            Decimal `json:"st_value"`               // vICMSST
	ExemptValue        Decimal `json:"exempt_value"`           // vICMSDeson
	ExemptReason       string  `json:"exempt_reason,omitempty"` // motDesICMS
	SimpleCreditRate   Decimal `json:"simple_credit_rate"`      // pCredSN
	SimpleCreditValue  Decimal `json:"simple_credit_value"`     // vCredICMSSN
}

// Code returns the CST, or the CSOSN for Simples Nacional variants.
func (i ICMS) Code() string {
	if i.CST != "" {
		return i.CST
	}
	return i.CSOSN
}

// IPI holds the IPI block and which regime (IPITrib or IPINT) was present.
type IPI struct {
	Regime        string  `json:"regime"`
	Framework     string  `json:"framework"` // cEnq
	ProducerCNPJ  string  `json:"producer_cnpj,omitempty"`
	CST           string  `json:"cst"`
	Base          Decimal `json:"base"`  // vBC
	Rate          Decimal `json:"rate"`  // pIPI
	Value         Decimal `json:"value"` // vIPI
}

// Contribution holds a PIS or COFINS block and the regime that was present
// (PISAliq, PISNT, COFINSOutr, ...).
type Contribution struct {
	Regime       string  `json:"regime"`
	CST          string  `json:"cst"`
	Base         Decimal `json:"base"`  // vBC
	Rate         Decimal `json:"rate"`  // pPIS / pCOFINS
	Value        Decimal `json:"value"` // vPIS / vCOFINS
	BaseQuantity Decimal `json:"base_quantity"`   // qBCProd
	QuantityRate Decimal `json:"quantity_rate"`   // vAliqProd
}

// InvoiceTotals mirrors total/ICMSTot.
type InvoiceTotals struct {
	ICMSBase          Decimal `json:"icms_base"`          // vBC
	ICMS              Decimal `json:"icms"`               // vICMS
	ICMSExempt        Decimal `json:"icms_exempt"`        // vICMSDeson
	FCPDestination    Decimal `json:"fcp_destination"`    // vFCPUFDest
	ICMSDestination   Decimal `json:"icms_destination"`   // vICMSUFDest
	ICMSSender        Decimal `json:"icms_sender"`        // vICMSUFRemet
	FCP               Decimal `json:"fcp"`                // vFCP
	STBase            Decimal `json:"st_base"`            // vBCST
	ST                Decimal `json:"st"`                 // vST
	FCPST             Decimal `json:"fcp_st"`             // vFCPST
	FCPSTWithheld     Decimal `json:"fcp_st_withheld"`    // vFCPSTRet
	Products          Decimal `json:"products"`           // vProd
	Freight           Decimal `json:"freight"`            // vFrete
	Insurance         Decimal `json:"insurance"`          // vSeg
	Discount          Decimal `json:"discount"`           // vDesc
	ImportTax         Decimal `json:"import_tax"`         // vII
	IPI               Decimal `json:"ipi"`                // vIPI
	IPIReturned       Decimal `json:"ipi_returned"`       // vIPIDevol
	PIS               Decimal `json:"pis"`                // vPIS
	COFINS            Decimal `json:"cofins"`             // vCOFINS
	Other             Decimal `json:"other"`              // vOutro
	Invoice           Decimal `json:"invoice"`            // vNF
	ApproximateTaxes  Decimal `json:"approximate_taxes"`  // vTotTrib
}

// Transport mirrors the transp block.
type Transport struct {
	FreightMode string   `json:"freight_mode"` // modFrete
	Carrier     *Carrier `json:"carrier,omitempty"`
	Volumes     []Volume `json:"volumes,omitempty"`
}

// Carrier is the transporta block.
type Carrier struct {
	PartyID
	Name              string `json:"name"`
	StateRegistration string `json:"state_registration,omitempty"`
	Address           string `json:"address,omitempty"` // xEnder
	Municipality      string `json:"municipality,omitempty"`
	State             string `json:"state,omitempty"`
}

// Volume is one vol entry.
type Volume struct {
	Quantity    string  `json:"quantity"` // qVol
	Species     string  `json:"species,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Numbering   string  `json:"numbering,omitempty"`
	NetWeight   Decimal `json:"net_weight"`
	GrossWeight Decimal `json:"gross_weight"`
}

// Billing is the cobr block.
type Billing struct {
	Invoice    *BillingInvoice `json:"invoice,omitempty"` // fat
	Duplicates []Duplicate     `json:"duplicates,omitempty"`
}

// BillingInvoice is the fat block.
type BillingInvoice struct {
	Number   string  `json:"number"`   // nFat
	Original Decimal `json:"original"` // vOrig
	Discount Decimal `json:"discount"` // vDesc
	Net      Decimal `json:"net"`      // vLiq
}

// Duplicate is one installment (dup).
type Duplicate struct {
	Number  string  `json:"number"`   // nDup
	DueDate string  `json:"due_date"` // dVenc
	Value   Decimal `json:"value"`    // vDup
}

// Payment is one detPag entry.
type Payment struct {
	Indicator   string  `json:"indicator,omitempty"` // indPag
	Method      string  `json:"method"`              // tPag
	Description string  `json:"description,omitempty"`
	Value       Decimal `json:"value"`
	Change      Decimal `json:"change"` // vTroco, from the enclosing pag
	Card        *Card   `json:"card,omitempty"`
}

// Card is the card block of a payment.
type Card struct {
	IntegrationType string `json:"integration_type"` // tpIntegra
	AcquirerCNPJ    string `json:"acquirer_cnpj,omitempty"`
	Brand           string `json:"brand,omitempty"`         // tBand
	Authorization   string `json:"authorization,omitempty"` // cAut
}

// AdditionalInfo is the infAdic block.
type AdditionalInfo struct {
	Fiscal       string         `json:"fiscal,omitempty"`       // infAdFisco
	Complement   string         `json:"complement,omitempty"`   // infCpl
	Observations []Observation  `json:"observations,omitempty"` // obsCont
}

// Observation is an obsCont entry.
type Observation struct {
	Field string `json:"field"` // xCampo attribute
	Text  string `json:"text"`  // xTexto
}

// Protocol is the authorization protocol attached by the tax authority.
type Protocol struct {
	Environment string `json:"environment"` // tpAmb
	AppVersion  string `json:"app_version"` // verAplic
	AccessKey   string `json:"access_key"`  // chNFe / chCTe
	ReceivedAt  string `json:"received_at"` // dhRecbto
	Number      string `json:"number"`      // nProt
	Digest      string `json:"digest"`      // digVal
	StatusCode  string `json:"status_code"` // cStat
	Reason      string `json:"reason"`      // xMotivo
}
