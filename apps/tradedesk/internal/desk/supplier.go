package desk

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/guard"
	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/model"
	"tradedesk/apps/tradedesk/internal/units"
)

// SupplierLedger is the slice of the ledger the supplier desk needs: the
// trade token plus the escrow vault bound to it.
type SupplierLedger interface {
	Account() common.Address
	VaultAddress() common.Address
	Decimals(ctx context.Context, token common.Address) int
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	VaultToken(ctx context.Context) (common.Address, error)
	VaultBalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Deposit(ctx context.Context, amount *big.Int) (ledger.PendingTx, error)
	Withdraw(ctx context.Context, amount *big.Int) (ledger.PendingTx, error)
}

type SupplierView struct {
	Account      string `json:"account"`
	Token        string `json:"token"`
	TokenBalance string `json:"token_balance"`
	VaultBalance string `json:"vault_balance"`
	Shares       string `json:"shares"`
}

type Supplier struct {
	ledger SupplierLedger
	guard  *guard.Guard
	busy   *busyFlags
	log    *activity.Log
	logger *zap.Logger
}

func NewSupplier(l SupplierLedger, g *guard.Guard, log *activity.Log, logger *zap.Logger) *Supplier {
	return &Supplier{
		ledger: l,
		guard:  g,
		busy:   newBusyFlags(),
		log:    log,
		logger: logger,
	}
}

func (s *Supplier) Log() *activity.Log { return s.log }

// Refresh reads the vault's bound token and the three balances the
// supplier cares about: own tokens, the vault's escrow, own shares.
func (s *Supplier) Refresh(ctx context.Context) (SupplierView, error) {
	if err := s.busy.acquire("refresh"); err != nil {
		return SupplierView{}, err
	}
	defer s.busy.release("refresh")

	view, err := s.refresh(ctx)
	if err != nil {
		s.log.Record("Refresh error: %s", err)
		return SupplierView{}, err
	}
	return view, nil
}

func (s *Supplier) refresh(ctx context.Context) (SupplierView, error) {
	me := s.ledger.Account()

	token, err := s.ledger.VaultToken(ctx)
	if err != nil {
		return SupplierView{}, err
	}
	decimals := s.ledger.Decimals(ctx, token)

	mine, err := s.ledger.BalanceOf(ctx, token, me)
	if err != nil {
		return SupplierView{}, err
	}
	escrowed, err := s.ledger.BalanceOf(ctx, token, s.ledger.VaultAddress())
	if err != nil {
		return SupplierView{}, err
	}
	shares, err := s.ledger.VaultBalanceOf(ctx, me)
	if err != nil {
		return SupplierView{}, err
	}

	view := SupplierView{
		Account:      me.Hex(),
		Token:        token.Hex(),
		TokenBalance: units.FromBase(mine, decimals),
		VaultBalance: units.FromBase(escrowed, decimals),
		Shares:       units.FromBase(shares, decimals),
	}
	s.log.Record("Balances loaded. You: %s | Vault: %s | Your shares: %s",
		view.TokenBalance, view.VaultBalance, view.Shares)
	return view, nil
}

// Deposit moves tokens into the vault, topping up the allowance first.
func (s *Supplier) Deposit(ctx context.Context, amount string) error {
	if err := s.busy.acquire("deposit"); err != nil {
		return err
	}
	defer s.busy.release("deposit")

	if err := s.deposit(ctx, amount); err != nil {
		s.log.Record("Deposit error: %s", err)
		return err
	}

	_, err := s.Refresh(ctx)
	return err
}

func (s *Supplier) deposit(ctx context.Context, amount string) error {
	token, err := s.ledger.VaultToken(ctx)
	if err != nil {
		return err
	}

	amt, err := units.ToBase(amount, s.ledger.Decimals(ctx, token))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadInput, err)
	}
	if amt.Sign() <= 0 {
		return model.ErrAmountNotPositive
	}

	me := s.ledger.Account()
	if err := s.guard.Ensure(ctx, token, me, s.ledger.VaultAddress(), amt); err != nil {
		return err
	}

	s.log.Record("Depositing %s…", amount)
	tx, err := s.ledger.Deposit(ctx, amt)
	if err != nil {
		return err
	}
	s.log.Record("deposit tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	s.log.Record("deposit confirmed.")

	s.logger.Info("Vault deposit confirmed",
		zap.String("account", me.Hex()),
		zap.String("amount", amt.String()))
	return nil
}

// Withdraw pulls tokens back out of the vault; no approval is involved.
func (s *Supplier) Withdraw(ctx context.Context, amount string) error {
	if err := s.busy.acquire("withdraw"); err != nil {
		return err
	}
	defer s.busy.release("withdraw")

	if err := s.withdraw(ctx, amount); err != nil {
		s.log.Record("Withdraw error: %s", err)
		return err
	}

	_, err := s.Refresh(ctx)
	return err
}

func (s *Supplier) withdraw(ctx context.Context, amount string) error {
	token, err := s.ledger.VaultToken(ctx)
	if err != nil {
		return err
	}

	amt, err := units.ToBase(amount, s.ledger.Decimals(ctx, token))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadInput, err)
	}
	if amt.Sign() <= 0 {
		return model.ErrAmountNotPositive
	}

	s.log.Record("Withdrawing %s…", amount)
	tx, err := s.ledger.Withdraw(ctx, amt)
	if err != nil {
		return err
	}
	s.log.Record("withdraw tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	s.log.Record("withdraw confirmed.")
	return nil
}
