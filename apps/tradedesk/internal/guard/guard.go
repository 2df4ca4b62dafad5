// Package guard enforces the pre-flight approval invariant: before any call
// that will pull at least N units from the session account, the allowance
// for (owner, spender) must be at least N.
package guard

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/ledger"
)

// TokenBook is the slice of the ledger the guard needs.
type TokenBook interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.PendingTx, error)
}

type Guard struct {
	tokens TokenBook
	log    *activity.Log
	logger *zap.Logger
}

func NewGuard(tokens TokenBook, log *activity.Log, logger *zap.Logger) *Guard {
	return &Guard{tokens: tokens, log: log, logger: logger}
}

// Ensure reads the current allowance and, only when it falls short, issues
// an approval for exactly the required amount and waits for its
// confirmation. When the allowance already suffices no transaction is sent,
// so repeated calls with the same requirement are idempotent.
func (g *Guard) Ensure(ctx context.Context, token, owner, spender common.Address, required *big.Int) error {
	current, err := g.tokens.Allowance(ctx, token, owner, spender)
	if err != nil {
		return fmt.Errorf("failed to read allowance: %w", err)
	}

	if current.Cmp(required) >= 0 {
		g.log.Record("Sufficient allowance already set.")
		return nil
	}

	g.log.Record("Approving %s units to %s…", required.String(), spender.Hex())
	tx, err := g.tokens.Approve(ctx, token, spender, required)
	if err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	g.log.Record("approve tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("approval not confirmed: %w", err)
	}
	g.log.Record("approve confirmed.")

	g.logger.Info("Allowance topped up",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", required.String()))
	return nil
}
