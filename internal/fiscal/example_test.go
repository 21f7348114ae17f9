package fiscal_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fiscal/internal/fiscal"
	"fiscal/internal/fiscal/fiscaltest"
)

// Example demonstrates decoding a document of either family.
func Example() {
	doc, err := fiscal.Decode(fiscaltest.Invoice(fiscaltest.Options{}))
	if err != nil {
		log.Fatal(err)
	}

	inv := doc.Invoice
	fmt.Printf("%s %s/%s from %s\n", doc.Family, inv.Identification.Number, inv.Identification.Series, inv.Issuer.Name)
	fmt.Printf("Total: %s\n", inv.Totals.Invoice)
	for _, item := range inv.Items {
		fmt.Printf("  #%s %s CFOP %s ICMS %s\n", item.Number, item.Product.Description, item.Product.CFOP, item.Taxes.ICMS.Variant)
	}

	// Output:
	// nfe 1234/1 from Metalurgica Exemplo Ltda
	// Total: 355.25
	//   #1 Parafuso sextavado CFOP 6102 ICMS ICMS00
	//   #2 Arruela lisa CFOP 6949 ICMS ICMSSN102
}

// ExampleDecode_errors shows how callers tell failures apart.
func ExampleDecode_errors() {
	for _, raw := range []string{
		"<nfeProc><NFe",
		"<pedido/>",
		"<CTe><infCte><ide/></infCte></CTe>",
	} {
		_, err := fiscal.Decode(raw)

		var sectionErr *fiscal.SectionError
		switch {
		case errors.As(err, &sectionErr):
			fmt.Println("missing section:", sectionErr.Section)
		case errors.Is(err, fiscal.ErrMalformedDocument):
			fmt.Println("malformed")
		case errors.Is(err, fiscal.ErrUnrecognizedDocumentType):
			fmt.Println("unrecognized")
		}
	}

	// Output:
	// malformed
	// unrecognized
	// missing section: emit
}

// ExampleService demonstrates the service with the totals check enabled.
func ExampleService() {
	svc := fiscal.NewService(fiscal.Options{CheckTotals: true})

	result, err := svc.Process(context.Background(), strings.NewReader(fiscaltest.Waybill(fiscaltest.Options{})))
	if err != nil {
		log.Fatal(err)
	}

	cte := result.Document.Waybill
	fmt.Printf("%s %s: %s -> %s, %s\n", result.Document.Family, cte.Identification.Number,
		cte.Identification.Origin.Name, cte.Identification.Destination.Name, cte.ServiceValue.Total)
	fmt.Println("consistent:", result.Consistent())

	// Output:
	// cte 456: Sao Paulo -> Curitiba, 1500.00
	// consistent: true
}
