package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DocType enumerates the document kinds known to the registry contract.
// Values match the on-chain uint8 encoding.
type DocType uint8

const (
	DocTypeEBL DocType = iota // electronic bill of lading, the shipment document
	DocTypeCommercialInvoice
	DocTypePackingList
	DocTypeCertificate
	DocTypeOther
)

func (t DocType) String() string {
	switch t {
	case DocTypeEBL:
		return "eBL"
	case DocTypeCommercialInvoice:
		return "commercial-invoice"
	case DocTypePackingList:
		return "packing-list"
	case DocTypeCertificate:
		return "certificate"
	case DocTypeOther:
		return "other"
	default:
		return fmt.Sprintf("doc-type-%d", uint8(t))
	}
}

// ParseDocType maps an operator-supplied name to a DocType.
func ParseDocType(s string) (DocType, error) {
	switch s {
	case "ebl", "eBL", "shipment-document":
		return DocTypeEBL, nil
	case "commercial-invoice", "invoice":
		return DocTypeCommercialInvoice, nil
	case "packing-list":
		return DocTypePackingList, nil
	case "certificate":
		return DocTypeCertificate, nil
	case "other":
		return DocTypeOther, nil
	}
	return 0, fmt.Errorf("%w: unknown document type %q", ErrBadInput, s)
}

// Document is a certified artifact registered against an order.
// Accepted and Rejected are independent flags; both false means pending review.
type Document struct {
	OrderID    uint64         `json:"order_id"`
	Index      uint64         `json:"index"`
	Type       DocType        `json:"type"`
	Hash       common.Hash    `json:"hash"` // sha256 of the artifact payload
	URI        string         `json:"uri"`
	Uploader   common.Address `json:"uploader"`
	UploadedAt uint64         `json:"uploaded_at"` // unix seconds, assigned on-chain
	Accepted   bool           `json:"accepted"`
	AcceptedBy common.Address `json:"accepted_by"`
	Rejected   bool           `json:"rejected"`
}

func (d Document) ReviewStatus() string {
	switch {
	case d.Accepted:
		return "ACCEPTED"
	case d.Rejected:
		return "REJECTED"
	default:
		return "PENDING"
	}
}
