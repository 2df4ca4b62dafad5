package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/desk"
	"tradedesk/apps/tradedesk/internal/model"
)

// maxDocumentSize caps uploaded document payloads at 16 MiB.
const maxDocumentSize = 16 << 20

type amountRequest struct {
	Amount string `json:"amount"`
}

type actionResponse struct {
	Status string `json:"status"`
}

func pathID(r *http.Request, key string) (uint64, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a valid identifier", model.ErrBadInput, key, raw)
	}
	return id, nil
}

// ---- Buyer desk ----

// buyerOrders handles GET /api/buyer/orders
func (s *Server) buyerOrders(w http.ResponseWriter, r *http.Request) {
	view, err := s.buyer.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, view)
}

// buyerCreate handles POST /api/buyer/orders
func (s *Server) buyerCreate(w http.ResponseWriter, r *http.Request) {
	var req desk.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON in request body", model.ErrBadInput))
		return
	}

	if err := s.buyer.Create(r.Context(), req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, actionResponse{Status: "order created"})
}

// buyerCancel handles POST /api/buyer/orders/{id}/cancel
func (s *Server) buyerCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.buyer.Cancel(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, actionResponse{Status: "order canceled"})
}

// ---- Trader desk ----

// traderOrders handles GET /api/trader/orders
func (s *Server) traderOrders(w http.ResponseWriter, r *http.Request) {
	view, err := s.trader.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, view)
}

// traderFill handles POST /api/trader/orders/{id}/fill
func (s *Server) traderFill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.trader.Fill(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, actionResponse{Status: "order filled"})
}

// ---- Document desk ----

// documentList handles GET /api/orders/{id}/documents
func (s *Server) documentList(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	view, err := s.documents.Refresh(r.Context(), orderID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, view)
}

// documentRegister handles POST /api/orders/{id}/documents as a multipart
// form: "file" (the artifact), "doc_type", and optional "cid" override.
func (s *Server) documentRegister(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid multipart form", model.ErrBadInput))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: missing document file", model.ErrBadInput))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxDocumentSize))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: failed to read document file", model.ErrBadInput))
		return
	}

	req := desk.RegisterRequest{
		OrderID:  orderID,
		DocType:  r.FormValue("doc_type"),
		FileName: header.Filename,
		Payload:  payload,
		CID:      r.FormValue("cid"),
	}

	if err := s.documents.Register(r.Context(), req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, actionResponse{Status: "document registered"})
}

// documentAccept handles POST /api/orders/{id}/documents/{index}/accept
func (s *Server) documentAccept(w http.ResponseWriter, r *http.Request) {
	s.documentReview(w, r, s.documents.Accept, "document accepted")
}

// documentReject handles POST /api/orders/{id}/documents/{index}/reject
func (s *Server) documentReject(w http.ResponseWriter, r *http.Request) {
	s.documentReview(w, r, s.documents.Reject, "document rejected")
}

func (s *Server) documentReview(w http.ResponseWriter, r *http.Request, review func(ctx context.Context, orderID, index uint64) error, status string) {
	orderID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	index, err := pathID(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := review(r.Context(), orderID, index); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, actionResponse{Status: status})
}

// ---- Supplier desk ----

// supplierBalances handles GET /api/supplier/balances
func (s *Server) supplierBalances(w http.ResponseWriter, r *http.Request) {
	view, err := s.supplier.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, view)
}

// supplierDeposit handles POST /api/supplier/deposit
func (s *Server) supplierDeposit(w http.ResponseWriter, r *http.Request) {
	s.supplierMove(w, r, s.supplier.Deposit, "deposit confirmed")
}

// supplierWithdraw handles POST /api/supplier/withdraw
func (s *Server) supplierWithdraw(w http.ResponseWriter, r *http.Request) {
	s.supplierMove(w, r, s.supplier.Withdraw, "withdrawal confirmed")
}

func (s *Server) supplierMove(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, amount string) error, status string) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON in request body", model.ErrBadInput))
		return
	}

	if err := move(r.Context(), req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, actionResponse{Status: status})
}

// ---- Activity ----

// activityLog handles GET /api/activity/{desk}
func (s *Server) activityLog(w http.ResponseWriter, r *http.Request) {
	var log *activity.Log
	switch mux.Vars(r)["desk"] {
	case "buyer":
		log = s.buyer.Log()
	case "trader":
		log = s.trader.Log()
	case "documents":
		log = s.documents.Log()
	case "supplier":
		log = s.supplier.Log()
	default:
		s.writeError(w, fmt.Errorf("%w: unknown desk %q", model.ErrBadInput, mux.Vars(r)["desk"]))
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"entries": log.Entries(),
	})
}
