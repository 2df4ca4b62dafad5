package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/desk"
)

// Server is the operator-facing HTTP surface over the role desks.
type Server struct {
	buyer     *desk.Buyer
	trader    *desk.Trader
	documents *desk.Documents
	supplier  *desk.Supplier
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(port int, buyer *desk.Buyer, trader *desk.Trader, documents *desk.Documents, supplier *desk.Supplier, logger *zap.Logger) *Server {
	return &Server{
		buyer:     buyer,
		trader:    trader,
		documents: documents,
		supplier:  supplier,
		logger:    logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second, // writes wait for on-chain confirmation
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start starts the API server
func (s *Server) Start() error {
	router := s.setupRoutes()
	s.server.Handler = router

	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// Buyer desk
	api.HandleFunc("/buyer/orders", s.buyerOrders).Methods("GET")
	api.HandleFunc("/buyer/orders", s.buyerCreate).Methods("POST")
	api.HandleFunc("/buyer/orders/{id}/cancel", s.buyerCancel).Methods("POST")

	// Trader desk
	api.HandleFunc("/trader/orders", s.traderOrders).Methods("GET")
	api.HandleFunc("/trader/orders/{id}/fill", s.traderFill).Methods("POST")

	// Document desk
	api.HandleFunc("/orders/{id}/documents", s.documentList).Methods("GET")
	api.HandleFunc("/orders/{id}/documents", s.documentRegister).Methods("POST")
	api.HandleFunc("/orders/{id}/documents/{index}/accept", s.documentAccept).Methods("POST")
	api.HandleFunc("/orders/{id}/documents/{index}/reject", s.documentReject).Methods("POST")

	// Supplier desk
	api.HandleFunc("/supplier/balances", s.supplierBalances).Methods("GET")
	api.HandleFunc("/supplier/deposit", s.supplierDeposit).Methods("POST")
	api.HandleFunc("/supplier/withdraw", s.supplierWithdraw).Methods("POST")

	// Activity logs
	api.HandleFunc("/activity/{desk}", s.activityLog).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", s.healthCheck).Methods("GET")

	return router
}

// requestIDMiddleware assigns every request an id for log correlation
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get("X-Request-Id")),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health check response", zap.Error(err))
	}
}
