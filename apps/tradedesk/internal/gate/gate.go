// Package gate evaluates the document-acceptance precondition that fill
// operations must satisfy. Gate state is never cached across scan cycles:
// acceptance can change between scans, so every evaluation re-queries the
// ledger's own predicate.
package gate

import (
	"context"
	"fmt"

	"tradedesk/apps/tradedesk/internal/model"
)

// AcceptanceSource is the ledger's acceptance predicate.
type AcceptanceSource interface {
	IsAccepted(ctx context.Context, orderID uint64, docType model.DocType) (bool, error)
}

type Evaluator struct {
	source AcceptanceSource
}

func NewEvaluator(source AcceptanceSource) *Evaluator {
	return &Evaluator{source: source}
}

// IsOpen reports whether at least one document of the given type on the
// order has been accepted. This client-side check is a pre-flight to avoid
// wasted failing transactions; it does not replace contract-side
// enforcement.
func (e *Evaluator) IsOpen(ctx context.Context, orderID uint64, docType model.DocType) (bool, error) {
	accepted, err := e.source.IsAccepted(ctx, orderID, docType)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %s gate for order %d: %w", docType, orderID, err)
	}
	return accepted, nil
}
