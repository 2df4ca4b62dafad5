package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// PendingTx is the handle returned by every write call. The caller must
// Wait for inclusion before treating the action as durable.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) error
}

type pendingTx struct {
	tx  *types.Transaction
	eth *ethclient.Client
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

// Wait blocks until the transaction is mined and fails if it reverted.
func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.eth, p.tx)
	if err != nil {
		return fmt.Errorf("failed waiting for transaction %s: %w", p.tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted in block %d", p.tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	}
	return nil
}
