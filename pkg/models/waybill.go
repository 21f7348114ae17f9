package models

// Waybill is a decoded transport waybill (CTe).
type Waybill struct {
	AccessKey string `json:"access_key"`
	Version   string `json:"version"`

	Identification WaybillIdentification `json:"identification"`
	Complement     *Complement           `json:"complement,omitempty"`

	// Carrier issuing the waybill
	Issuer Party `json:"issuer"`

	// Optional participants
	Sender    *Party `json:"sender,omitempty"`    // rem
	Shipper   *Party `json:"shipper,omitempty"`   // exped
	Receiver  *Party `json:"receiver,omitempty"`  // receb
	Recipient *Party `json:"recipient,omitempty"` // dest

	ServiceValue ServiceValue `json:"service_value"`
	Taxes        WaybillTaxes `json:"taxes"`

	Cargo              *Cargo              `json:"cargo,omitempty"`
	ReferencedInvoices []ReferencedInvoice `json:"referenced_invoices,omitempty"`
	Protocol           *Protocol           `json:"protocol,omitempty"`
}

// WaybillIdentification mirrors the ide block of a CTe.
type WaybillIdentification struct {
	StateCode       string `json:"state_code"`
	NumericCode     string `json:"numeric_code"`
	CFOP            string `json:"cfop"`
	OperationNature string `json:"operation_nature"`
	Model           string `json:"model"`
	Series          string `json:"series"`
	Number          string `json:"number"` // nCT
	IssuedAt        string `json:"issued_at"`
	PrintType       string `json:"print_type"`
	EmissionType    string `json:"emission_type"`
	CheckDigit      string `json:"check_digit"`
	Environment     string `json:"environment"`
	WaybillType     string `json:"waybill_type"` // tpCTe
	EmissionProcess string `json:"emission_process"`
	ProcessVersion  string `json:"process_version"`

	Sending     Municipality `json:"sending"`     // cMunEnv, xMunEnv, UFEnv
	Modal       string       `json:"modal"`       // 01 road ... 06 multimodal
	ServiceType string       `json:"service_type"` // tpServ
	Origin      Municipality `json:"origin"`      // cMunIni, xMunIni, UFIni
	Destination Municipality `json:"destination"` // cMunFim, xMunFim, UFFim

	Pickup       string `json:"pickup"` // retira
	PickupDetail string `json:"pickup_detail,omitempty"`
	TakerIE      string `json:"taker_ie,omitempty"` // indIEToma
	Taker        string `json:"taker,omitempty"`    // toma3/toma or toma4/toma
}

// Municipality is a code/name/state triple.
type Municipality struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// ModalName returns a readable name for the transport modal code.
func (w WaybillIdentification) ModalName() string {
	switch w.Modal {
	case "01":
		return "road"
	case "02":
		return "air"
	case "03":
		return "water"
	case "04":
		return "rail"
	case "05":
		return "pipeline"
	case "06":
		return "multimodal"
	default:
		return ""
	}
}

// Complement is the compl block.
type Complement struct {
	CargoFeature   string        `json:"cargo_feature,omitempty"`   // xCaracAd
	ServiceFeature string        `json:"service_feature,omitempty"` // xCaracSer
	Observation    string        `json:"observation,omitempty"`     // xObs
	Observations   []Observation `json:"observations,omitempty"`    // ObsCont
}

// ServiceValue is the vPrest block.
type ServiceValue struct {
	Total      Decimal          `json:"total"`      // vTPrest
	Receivable Decimal          `json:"receivable"` // vRec
	Components []ValueComponent `json:"components,omitempty"`
}

// ValueComponent is one Comp entry of the service value.
type ValueComponent struct {
	Name  string  `json:"name"`  // xNome
	Value Decimal `json:"value"` // vComp
}

// WaybillTaxes is the imp block. A waybill carries a single ICMS regime.
type WaybillTaxes struct {
	ICMS             WaybillICMS `json:"icms"`
	TotalTaxes       Decimal     `json:"total_taxes"` // vTotTrib
	FiscalNotes      string      `json:"fiscal_notes,omitempty"`
}

// WaybillICMS holds the single ICMS variant of a waybill.
type WaybillICMS struct {
	Variant       string  `json:"variant"` // ICMS00, ICMS45, ICMSSN, ...
	CST           string  `json:"cst"`
	BaseReduction Decimal `json:"base_reduction"` // pRedBC
	Base          Decimal `json:"base"`           // vBC
	Rate          Decimal `json:"rate"`           // pICMS
	Value         Decimal `json:"value"`          // vICMS
	Credit        Decimal `json:"credit"`         // vCred
	SimpleNational string `json:"simple_national,omitempty"` // indSN
}

// Cargo is the infCarga block.
type Cargo struct {
	Value        Decimal         `json:"value"`                   // vCarga
	MainProduct  string          `json:"main_product"`            // proPred
	OtherFeature string          `json:"other_feature,omitempty"` // xOutCat
	Quantities   []CargoQuantity `json:"quantities,omitempty"`
}

// CargoQuantity is one infQ entry.
type CargoQuantity struct {
	Unit     string  `json:"unit"`    // cUnid
	Measure  string  `json:"measure"` // tpMed
	Quantity Decimal `json:"quantity"`
}

// ReferencedInvoice is an infNFe reference inside infDoc.
type ReferencedInvoice struct {
	AccessKey    string `json:"access_key"`
	PIN          string `json:"pin,omitempty"`
	ExpectedDate string `json:"expected_date,omitempty"` // dPrev
}
