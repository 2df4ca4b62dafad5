package desk

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/artifact"
	"tradedesk/apps/tradedesk/internal/gate"
	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/model"
	"tradedesk/apps/tradedesk/internal/scanner"
)

// DocLedger is the write surface of the document registry.
type DocLedger interface {
	RegisterDocument(ctx context.Context, orderID uint64, docType model.DocType, hash common.Hash, uri string) (ledger.PendingTx, error)
	AcceptDocument(ctx context.Context, orderID, index uint64) (ledger.PendingTx, error)
	RejectDocument(ctx context.Context, orderID, index uint64) (ledger.PendingTx, error)
}

// Uploader is the off-chain artifact store surface.
type Uploader interface {
	CanUpload() bool
	Upload(ctx context.Context, name string, payload []byte) (string, error)
}

type DocRow struct {
	Index      uint64 `json:"index"`
	Type       string `json:"type"`
	Hash       string `json:"hash"`
	URI        string `json:"uri"`
	Uploader   string `json:"uploader"`
	UploadedAt uint64 `json:"uploaded_at"`
	Status     string `json:"status"`
	AcceptedBy string `json:"accepted_by,omitempty"`
}

type DocView struct {
	OrderID     uint64   `json:"order_id"`
	Docs        []DocRow `json:"docs"`
	EBLAccepted bool     `json:"ebl_accepted"`
}

type RegisterRequest struct {
	OrderID  uint64
	DocType  string
	FileName string
	Payload  []byte
	CID      string // optional content-identifier override; skips the upload
}

type Documents struct {
	ledger  DocLedger
	scanner *scanner.Scanner
	gate    *gate.Evaluator
	store   Uploader
	busy    *busyFlags
	log     *activity.Log
	logger  *zap.Logger
}

func NewDocuments(l DocLedger, sc *scanner.Scanner, ev *gate.Evaluator, store Uploader, log *activity.Log, logger *zap.Logger) *Documents {
	return &Documents{
		ledger:  l,
		scanner: sc,
		gate:    ev,
		store:   store,
		busy:    newBusyFlags(),
		log:     log,
		logger:  logger,
	}
}

func (d *Documents) Log() *activity.Log { return d.log }

// Refresh loads the full document list for an order plus its eBL gate state.
func (d *Documents) Refresh(ctx context.Context, orderID uint64) (DocView, error) {
	if err := d.busy.acquire("refresh"); err != nil {
		return DocView{}, err
	}
	defer d.busy.release("refresh")

	docs, err := d.scanner.ScanDocuments(ctx, orderID)
	if err != nil {
		d.log.Record("Refresh error: %s", err)
		return DocView{}, err
	}

	accepted, err := d.gate.IsOpen(ctx, orderID, model.DocTypeEBL)
	if err != nil {
		d.log.Record("Refresh error: %s", err)
		return DocView{}, err
	}

	view := DocView{OrderID: orderID, EBLAccepted: accepted}
	for _, doc := range docs {
		row := DocRow{
			Index:      doc.Index,
			Type:       doc.Type.String(),
			Hash:       doc.Hash.Hex(),
			URI:        doc.URI,
			Uploader:   doc.Uploader.Hex(),
			UploadedAt: doc.UploadedAt,
			Status:     doc.ReviewStatus(),
		}
		if doc.Accepted {
			row.AcceptedBy = doc.AcceptedBy.Hex()
		}
		view.Docs = append(view.Docs, row)
	}

	d.log.Record("Loaded %d docs. eBL accepted = %v", len(docs), accepted)
	return view, nil
}

// Register hashes the payload, resolves its storage URI (upload or
// operator-supplied identifier) and records the document on-chain.
func (d *Documents) Register(ctx context.Context, req RegisterRequest) error {
	if err := d.busy.acquire("register"); err != nil {
		return err
	}
	defer d.busy.release("register")

	if err := d.register(ctx, req); err != nil {
		d.log.Record("Register error: %s", err)
		return err
	}

	_, err := d.Refresh(ctx, req.OrderID)
	return err
}

func (d *Documents) register(ctx context.Context, req RegisterRequest) error {
	if len(req.Payload) == 0 {
		return fmt.Errorf("%w: empty document payload", model.ErrBadInput)
	}

	docType, err := model.ParseDocType(req.DocType)
	if err != nil {
		return err
	}

	// the content hash is always computed locally, before any upload
	hash := artifact.Hash(req.Payload)
	d.log.Record("sha256(file) = %s", hash.Hex())

	var uri string
	switch {
	case strings.TrimSpace(req.CID) != "":
		uri = artifact.NormalizeURI(req.CID)
		d.log.Record("Using existing CID: %s", uri)
	case d.store.CanUpload():
		if uri, err = d.store.Upload(ctx, req.FileName, req.Payload); err != nil {
			return err
		}
		d.log.Record("Uploaded to %s", uri)
	default:
		return fmt.Errorf("%w: artifact store not configured and no content identifier supplied", model.ErrBadInput)
	}

	d.log.Record("Registering on-chain…")
	tx, err := d.ledger.RegisterDocument(ctx, req.OrderID, docType, hash, uri)
	if err != nil {
		return err
	}
	d.log.Record("register tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	d.log.Record("registered.")

	d.logger.Info("Document registered",
		zap.Uint64("order_id", req.OrderID),
		zap.String("doc_type", docType.String()),
		zap.String("uri", uri))
	return nil
}

// Accept marks a document accepted on behalf of the reviewing counter-party.
func (d *Documents) Accept(ctx context.Context, orderID, index uint64) error {
	return d.review(ctx, orderID, index, "accept")
}

// Reject marks a document rejected.
func (d *Documents) Reject(ctx context.Context, orderID, index uint64) error {
	return d.review(ctx, orderID, index, "reject")
}

func (d *Documents) review(ctx context.Context, orderID, index uint64, verdict string) error {
	if err := d.busy.acquire(verdict); err != nil {
		return err
	}
	defer d.busy.release(verdict)

	var (
		tx    ledger.PendingTx
		err   error
		label = "Accept"
		done  = "accepted."
	)
	if verdict == "accept" {
		tx, err = d.ledger.AcceptDocument(ctx, orderID, index)
	} else {
		label, done = "Reject", "rejected."
		tx, err = d.ledger.RejectDocument(ctx, orderID, index)
	}
	if err != nil {
		d.log.Record("%s error: %s", label, err)
		return err
	}
	d.log.Record("%s tx: %s", verdict, tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		d.log.Record("%s error: %s", label, err)
		return err
	}
	d.log.Record("%s", done)

	_, err = d.Refresh(ctx, orderID)
	return err
}
