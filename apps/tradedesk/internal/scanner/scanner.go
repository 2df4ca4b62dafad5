// Package scanner reconciles local view state against remote truth by
// walking a bounded window of recent record identifiers. Results are
// "recent activity", never a complete historical index: anything older than
// the window is deliberately out of reach.
package scanner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/model"
)

// OrderSource is the read surface of the order book.
type OrderSource interface {
	NextOrderID(ctx context.Context) (uint64, error)
	OrderAt(ctx context.Context, id uint64) (model.Order, bool, error)
}

// DocSource is the read surface of the document registry.
type DocSource interface {
	DocCount(ctx context.Context, orderID uint64) (uint64, error)
	DocAt(ctx context.Context, orderID, index uint64) (model.Document, error)
}

type Scanner struct {
	orders OrderSource
	docs   DocSource
	logger *zap.Logger
}

func NewScanner(orders OrderSource, docs DocSource, logger *zap.Logger) *Scanner {
	return &Scanner{orders: orders, docs: docs, logger: logger}
}

// ScanOrders walks ids in [max(0, nextId-window), nextId) ascending and
// retains every present record that satisfies keep. A ledger with
// nextOrderId = 0 yields an empty slice without error.
func (s *Scanner) ScanOrders(ctx context.Context, window uint64, keep func(model.Order) bool) ([]model.Order, error) {
	nextID, err := s.orders.NextOrderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read next order id: %w", err)
	}

	lower := uint64(0)
	if nextID > window {
		lower = nextID - window
	}

	var retained []model.Order
	for id := lower; id < nextID; id++ {
		order, ok, err := s.orders.OrderAt(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
		}
		if !ok {
			continue // unwritten slot
		}
		if keep == nil || keep(order) {
			retained = append(retained, order)
		}
	}

	s.logger.Debug("Order scan complete",
		zap.Uint64("lower", lower),
		zap.Uint64("next_id", nextID),
		zap.Int("retained", len(retained)))
	return retained, nil
}

// ScanDocuments fetches the dense document list 0..count-1 for one order.
func (s *Scanner) ScanDocuments(ctx context.Context, orderID uint64) ([]model.Document, error) {
	count, err := s.docs.DocCount(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document count for order %d: %w", orderID, err)
	}

	docs := make([]model.Document, 0, count)
	for index := uint64(0); index < count; index++ {
		doc, err := s.docs.DocAt(ctx, orderID, index)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch document %d/%d: %w", orderID, index, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
