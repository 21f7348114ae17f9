package fiscal

import (
	"io"

	"github.com/beevik/etree"

	"fiscal/internal/xmltree"
	"fiscal/pkg/models"
)

// Decode classifies raw XML text and decodes it with the matching decoder.
// On failure the returned document is nil; a partial record is never returned.
func Decode(raw string) (*models.Document, error) {
	const op = "Decode"

	root, err := xmltree.Parse(raw)
	if err != nil {
		return nil, NewDecodeError(op, ErrMalformedDocument, err.Error())
	}
	return decodeTree(op, root)
}

// DecodeReader is Decode over a reader.
func DecodeReader(r io.Reader) (*models.Document, error) {
	const op = "DecodeReader"

	root, err := xmltree.ParseReader(r)
	if err != nil {
		return nil, NewDecodeError(op, ErrMalformedDocument, err.Error())
	}
	return decodeTree(op, root)
}

// Classify reports which family a parsed tree belongs to. Bare and
// protocol-wrapped forms classify the same way.
func Classify(root *etree.Element) (models.Family, bool) {
	switch {
	case xmltree.FirstOrSelf(root, "nfeProc") != nil, xmltree.FirstOrSelf(root, "NFe") != nil:
		return models.FamilyInvoice, true
	case xmltree.FirstOrSelf(root, "cteProc") != nil, xmltree.FirstOrSelf(root, "CTe") != nil:
		return models.FamilyWaybill, true
	default:
		return "", false
	}
}

func decodeTree(op string, root *etree.Element) (*models.Document, error) {
	family, ok := Classify(root)
	if !ok {
		return nil, NewDecodeError(op, ErrUnrecognizedDocumentType, "root element "+root.Tag)
	}

	switch family {
	case models.FamilyInvoice:
		inv, err := DecodeInvoice(root)
		if err != nil {
			return nil, err
		}
		return &models.Document{Family: family, Invoice: inv}, nil
	default:
		cte, err := DecodeWaybill(root)
		if err != nil {
			return nil, err
		}
		return &models.Document{Family: family, Waybill: cte}, nil
	}
}
