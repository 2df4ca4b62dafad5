package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/model"
)

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps the error taxonomy onto HTTP codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrBadInput),
		errors.Is(err, model.ErrAmountNotPositive),
		errors.Is(err, model.ErrBadAddress):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, model.ErrSellerLocked), errors.Is(err, model.ErrGateClosed):
		return http.StatusForbidden, "authorization_error"
	case errors.Is(err, model.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, model.ErrOrderClosed):
		return http.StatusConflict, "order_closed"
	case errors.Is(err, model.ErrBusy):
		return http.StatusConflict, "action_in_flight"
	case errors.Is(err, model.ErrNoSession), errors.Is(err, model.ErrWrongNetwork):
		return http.StatusBadGateway, "ledger_unavailable"
	default:
		return http.StatusInternalServerError, "remote_error"
	}
}

// writeJSONResponse writes a JSON response with the specified status code
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError converts a desk failure into the error envelope. The failure
// has already been appended to the desk's activity log by the desk itself.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	statusCode, errorCode := statusFor(err)
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: err.Error(),
	})
}
