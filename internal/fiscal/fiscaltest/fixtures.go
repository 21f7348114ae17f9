// Package fiscaltest provides sample documents for tests.
package fiscaltest

import "strings"

// Default fixture values.
const (
	InvoiceKey   = "35240112345678000190550010000012341000012345"
	WaybillKey   = "35240298765432000110570010000004561000004567"
	InvoiceTotal = "355.25"
	WaybillTotal = "1500.00"
)

// Options tweaks a fixture. Empty fields keep the defaults.
type Options struct {
	AccessKey  string
	Number     string
	Series     string
	IssuedAt   string
	StatusCode string
	IssuerName string
	Total      string

	// NoRecipient drops the dest block.
	NoRecipient bool
	// NoProtocol emits the bare document without the protocol wrapper.
	NoProtocol bool
}

func (o Options) replacer(key, number, total string) *strings.Replacer {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return strings.NewReplacer(
		"{{KEY}}", pick(o.AccessKey, key),
		"{{NUMBER}}", pick(o.Number, number),
		"{{SERIES}}", pick(o.Series, "1"),
		"{{ISSUED}}", pick(o.IssuedAt, "2024-01-15T10:30:00-03:00"),
		"{{CSTAT}}", pick(o.StatusCode, "100"),
		"{{ISSUER}}", pick(o.IssuerName, "Metalurgica Exemplo Ltda"),
		"{{TOTAL}}", pick(o.Total, total),
	)
}

// Invoice returns an authorized NFe with two line items.
func Invoice(o Options) string {
	body := invoiceBody
	if o.NoRecipient {
		body = strings.Replace(body, invoiceDest, "", 1)
	}
	doc := body
	if !o.NoProtocol {
		doc = `<?xml version="1.0" encoding="UTF-8"?><nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">` +
			body + invoiceProtocol + `</nfeProc>`
	}
	return o.replacer(InvoiceKey, "1234", InvoiceTotal).Replace(doc)
}

// Waybill returns an authorized road CTe.
func Waybill(o Options) string {
	body := waybillBody
	if o.NoRecipient {
		body = strings.Replace(body, waybillDest, "", 1)
	}
	doc := body
	if !o.NoProtocol {
		doc = `<?xml version="1.0" encoding="UTF-8"?><cteProc xmlns="http://www.portalfiscal.inf.br/cte" versao="4.00">` +
			body + waybillProtocol + `</cteProc>`
	}
	return o.replacer(WaybillKey, "456", WaybillTotal).Replace(doc)
}

const invoiceDest = `
      <dest>
        <CNPJ>98765432000110</CNPJ>
        <xNome>Comercial Destino S.A.</xNome>
        <enderDest>
          <xLgr>Avenida Brasil</xLgr><nro>500</nro><xBairro>Centro</xBairro>
          <cMun>3304557</cMun><xMun>Rio de Janeiro</xMun><UF>RJ</UF><CEP>20040000</CEP>
          <cPais>1058</cPais><xPais>BRASIL</xPais>
        </enderDest>
        <indIEDest>1</indIEDest>
        <IE>87654321</IE>
        <email>fiscal@destino.com.br</email>
      </dest>`

const invoiceBody = `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
    <infNFe Id="NFe{{KEY}}" versao="4.00">
      <ide>
        <cUF>35</cUF><cNF>00001234</cNF><natOp>Venda de mercadoria</natOp><mod>55</mod>
        <serie>{{SERIES}}</serie><nNF>{{NUMBER}}</nNF><dhEmi>{{ISSUED}}</dhEmi>
        <dhSaiEnt>2024-01-15T14:00:00-03:00</dhSaiEnt><tpNF>1</tpNF><idDest>2</idDest>
        <cMunFG>3550308</cMunFG><tpImp>1</tpImp><tpEmis>1</tpEmis><cDV>5</cDV><tpAmb>1</tpAmb>
        <finNFe>1</finNFe><indFinal>0</indFinal><indPres>1</indPres><procEmi>0</procEmi><verProc>1.0</verProc>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>{{ISSUER}}</xNome>
        <xFant>Exemplo</xFant>
        <enderEmit>
          <xLgr>Rua das Industrias</xLgr><nro>100</nro><xBairro>Distrito Industrial</xBairro>
          <cMun>3550308</cMun><xMun>Sao Paulo</xMun><UF>SP</UF><CEP>01000000</CEP>
        </enderEmit>
        <IE>123456789</IE>
        <CRT>3</CRT>
      </emit>` + invoiceDest + `
      <det nItem="1">
        <prod>
          <cProd>PRD-001</cProd><cEAN>SEM GTIN</cEAN><xProd>Parafuso sextavado</xProd><NCM>73181500</NCM>
          <CFOP>6102</CFOP><uCom>CX</uCom><qCom>10.0000</qCom><vUnCom>25.5000000000</vUnCom><vProd>255.00</vProd>
          <cEANTrib>SEM GTIN</cEANTrib><uTrib>CX</uTrib><qTrib>10.0000</qTrib><vUnTrib>25.5000000000</vUnTrib>
          <vFrete>10.00</vFrete><vDesc>5.00</vDesc><indTot>1</indTot>
        </prod>
        <imposto>
          <vTotTrib>80.10</vTotTrib>
          <ICMS><ICMS00><orig>0</orig><CST>00</CST><modBC>3</modBC><vBC>255.00</vBC><pICMS>18.00</pICMS><vICMS>45.90</vICMS></ICMS00></ICMS>
          <IPI><cEnq>999</cEnq><IPITrib><CST>50</CST><vBC>255.00</vBC><pIPI>5.00</pIPI><vIPI>12.75</vIPI></IPITrib></IPI>
          <PIS><PISAliq><CST>01</CST><vBC>255.00</vBC><pPIS>1.65</pPIS><vPIS>4.21</vPIS></PISAliq></PIS>
          <COFINS><COFINSAliq><CST>01</CST><vBC>255.00</vBC><pCOFINS>7.60</pCOFINS><vCOFINS>19.38</vCOFINS></COFINSAliq></COFINS>
        </imposto>
        <infAdProd>Lote 42</infAdProd>
      </det>
      <det nItem="2">
        <prod>
          <cProd>PRD-002</cProd><cEAN>7891234567895</cEAN><xProd>Arruela lisa</xProd><NCM>73182200</NCM>
          <CFOP>6949</CFOP><uCom>UN</uCom><qCom>150.0000</qCom><vUnCom>0.5500000000</vUnCom><vProd>82.50</vProd>
          <cEANTrib>7891234567895</cEANTrib><uTrib>UN</uTrib><qTrib>150.0000</qTrib><vUnTrib>0.5500000000</vUnTrib>
          <indTot>1</indTot>
        </prod>
        <imposto>
          <ICMS><ICMSSN102><orig>0</orig><CSOSN>102</CSOSN></ICMSSN102></ICMS>
          <IPI><cEnq>999</cEnq><IPINT><CST>53</CST></IPINT></IPI>
          <PIS><PISNT><CST>07</CST></PISNT></PIS>
          <COFINS><COFINSNT><CST>07</CST></COFINSNT></COFINS>
        </imposto>
      </det>
      <total>
        <ICMSTot>
          <vBC>255.00</vBC><vICMS>45.90</vICMS><vICMSDeson>0.00</vICMSDeson><vFCP>0.00</vFCP>
          <vBCST>0.00</vBCST><vST>0.00</vST><vFCPST>0.00</vFCPST><vFCPSTRet>0.00</vFCPSTRet>
          <vProd>337.50</vProd><vFrete>10.00</vFrete><vSeg>0.00</vSeg><vDesc>5.00</vDesc><vII>0.00</vII>
          <vIPI>12.75</vIPI><vIPIDevol>0.00</vIPIDevol><vPIS>4.21</vPIS><vCOFINS>19.38</vCOFINS>
          <vOutro>0.00</vOutro><vNF>{{TOTAL}}</vNF><vTotTrib>80.10</vTotTrib>
        </ICMSTot>
      </total>
      <transp>
        <modFrete>0</modFrete>
        <transporta><CNPJ>11222333000144</CNPJ><xNome>Transportes Rapidos Ltda</xNome><IE>111222333</IE><xMun>Sao Paulo</xMun><UF>SP</UF></transporta>
        <vol><qVol>2</qVol><esp>CAIXA</esp><pesoL>40.500</pesoL><pesoB>42.000</pesoB></vol>
      </transp>
      <cobr>
        <fat><nFat>1234</nFat><vOrig>355.25</vOrig><vDesc>0.00</vDesc><vLiq>355.25</vLiq></fat>
        <dup><nDup>001</nDup><dVenc>2024-02-15</dVenc><vDup>177.62</vDup></dup>
        <dup><nDup>002</nDup><dVenc>2024-03-15</dVenc><vDup>177.63</vDup></dup>
      </cobr>
      <pag>
        <detPag><indPag>1</indPag><tPag>15</tPag><vPag>355.25</vPag></detPag>
      </pag>
      <infAdic>
        <infCpl>Pedido 998877</infCpl>
        <obsCont xCampo="Vendedor"><xTexto>Joao</xTexto></obsCont>
      </infAdic>
    </infNFe>
  </NFe>`

const invoiceProtocol = `
  <protNFe versao="4.00">
    <infProt>
      <tpAmb>1</tpAmb><verAplic>SP_NFE_PL009_V4</verAplic><chNFe>{{KEY}}</chNFe>
      <dhRecbto>2024-01-15T10:31:02-03:00</dhRecbto><nProt>135240000123456</nProt>
      <digVal>q1w2e3r4t5y6u7i8o9p0=</digVal><cStat>{{CSTAT}}</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo>
    </infProt>
  </protNFe>`

const waybillDest = `
      <dest>
        <CNPJ>55666777000188</CNPJ>
        <xNome>Armazem Destino Ltda</xNome>
        <enderDest><xLgr>Rodovia BR 101</xLgr><nro>KM 20</nro><xBairro>Zona Rural</xBairro><cMun>4106902</cMun><xMun>Curitiba</xMun><UF>PR</UF></enderDest>
      </dest>`

const waybillBody = `<CTe xmlns="http://www.portalfiscal.inf.br/cte">
    <infCte Id="CTe{{KEY}}" versao="4.00">
      <ide>
        <cUF>35</cUF><cCT>00000456</cCT><CFOP>6353</CFOP><natOp>Prestacao de servico de transporte</natOp>
        <mod>57</mod><serie>{{SERIES}}</serie><nCT>{{NUMBER}}</nCT><dhEmi>{{ISSUED}}</dhEmi>
        <tpImp>1</tpImp><tpEmis>1</tpEmis><cDV>7</cDV><tpAmb>1</tpAmb><tpCTe>0</tpCTe><procEmi>0</procEmi>
        <verProc>3.0</verProc><cMunEnv>3550308</cMunEnv><xMunEnv>Sao Paulo</xMunEnv><UFEnv>SP</UFEnv>
        <modal>01</modal><tpServ>0</tpServ>
        <cMunIni>3550308</cMunIni><xMunIni>Sao Paulo</xMunIni><UFIni>SP</UFIni>
        <cMunFim>4106902</cMunFim><xMunFim>Curitiba</xMunFim><UFFim>PR</UFFim>
        <retira>1</retira><indIEToma>1</indIEToma>
        <toma3><toma>0</toma></toma3>
      </ide>
      <compl>
        <xCaracAd>Carga seca</xCaracAd>
        <xObs>Entregar em horario comercial</xObs>
        <ObsCont xCampo="Motorista"><xTexto>Carlos</xTexto></ObsCont>
      </compl>
      <emit>
        <CNPJ>98765432000110</CNPJ><IE>998877665</IE>
        <xNome>{{ISSUER}}</xNome>
        <enderEmit><xLgr>Rua do Porto</xLgr><nro>1</nro><xBairro>Cais</xBairro><cMun>3548500</cMun><xMun>Santos</xMun><UF>SP</UF></enderEmit>
      </emit>
      <rem>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Metalurgica Exemplo Ltda</xNome>
        <enderReme><xLgr>Rua das Industrias</xLgr><nro>100</nro><xBairro>Distrito Industrial</xBairro><cMun>3550308</cMun><xMun>Sao Paulo</xMun><UF>SP</UF></enderReme>
      </rem>` + waybillDest + `
      <vPrest>
        <vTPrest>{{TOTAL}}</vTPrest><vRec>1500.00</vRec>
        <Comp><xNome>FRETE PESO</xNome><vComp>1200.00</vComp></Comp>
        <Comp><xNome>PEDAGIO</xNome><vComp>300.00</vComp></Comp>
      </vPrest>
      <imp>
        <ICMS><ICMS00><CST>00</CST><vBC>1500.00</vBC><pICMS>12.00</pICMS><vICMS>180.00</vICMS></ICMS00></ICMS>
        <vTotTrib>180.00</vTotTrib>
      </imp>
      <infCTeNorm>
        <infCarga>
          <vCarga>355.25</vCarga><proPred>Parafusos e arruelas</proPred>
          <infQ><cUnid>01</cUnid><tpMed>PESO BRUTO</tpMed><qCarga>42.0000</qCarga></infQ>
        </infCarga>
        <infDoc>
          <infNFe><chave>35240112345678000190550010000012341000012345</chave></infNFe>
        </infDoc>
        <infModal versaoModal="4.00"><rodo><RNTRC>12345678</RNTRC></rodo></infModal>
      </infCTeNorm>
    </infCte>
  </CTe>`

const waybillProtocol = `
  <protCTe versao="4.00">
    <infProt>
      <tpAmb>1</tpAmb><verAplic>SP-CTe-2024</verAplic><chCTe>{{KEY}}</chCTe>
      <dhRecbto>2024-02-10T08:01:00-03:00</dhRecbto><nProt>135240000654321</nProt>
      <digVal>z9x8c7v6b5n4m3=</digVal><cStat>{{CSTAT}}</cStat><xMotivo>Autorizado o uso do CT-e</xMotivo>
    </infProt>
  </protCTe>`
