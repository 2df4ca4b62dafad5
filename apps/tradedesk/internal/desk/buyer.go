package desk

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/guard"
	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/model"
	"tradedesk/apps/tradedesk/internal/scanner"
	"tradedesk/apps/tradedesk/internal/units"
)

// BuyerLedger is the slice of the ledger the buyer desk needs beyond the
// scanner and the allowance guard.
type BuyerLedger interface {
	Account() common.Address
	OrderBookAddress() common.Address
	Decimals(ctx context.Context, token common.Address) int
	CreateOrder(ctx context.Context, seller, payToken common.Address, payAmount *big.Int, assetToken common.Address, assetAmount *big.Int) (ledger.PendingTx, error)
	CancelOrder(ctx context.Context, id uint64) (ledger.PendingTx, error)
}

// OrderRow is one actionable row of an order table.
type OrderRow struct {
	ID          uint64 `json:"id"`
	Status      string `json:"status"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"` // "any" when not locked
	PayToken    string `json:"pay_token"`
	PayAmount   string `json:"pay_amount"`
	AssetToken  string `json:"asset_token"`
	AssetAmount string `json:"asset_amount"`
	CanCancel   bool   `json:"can_cancel"`
}

type BuyerView struct {
	Account string     `json:"account"`
	Orders  []OrderRow `json:"orders"`
}

type CreateOrderRequest struct {
	Seller      string `json:"seller"` // optional; blank means any seller
	PayToken    string `json:"pay_token"`
	PayAmount   string `json:"pay_amount"`
	AssetToken  string `json:"asset_token"`
	AssetAmount string `json:"asset_amount"`
}

type Buyer struct {
	ledger  BuyerLedger
	scanner *scanner.Scanner
	guard   *guard.Guard
	window  uint64
	busy    *busyFlags
	log     *activity.Log
	logger  *zap.Logger
}

func NewBuyer(l BuyerLedger, sc *scanner.Scanner, g *guard.Guard, window uint64, log *activity.Log, logger *zap.Logger) *Buyer {
	return &Buyer{
		ledger:  l,
		scanner: sc,
		guard:   g,
		window:  window,
		busy:    newBusyFlags(),
		log:     log,
		logger:  logger,
	}
}

func (b *Buyer) Log() *activity.Log { return b.log }

// Refresh reconciles the buyer view against the ledger: all recent orders
// are scanned, then narrowed to the session account's own.
func (b *Buyer) Refresh(ctx context.Context) (BuyerView, error) {
	if err := b.busy.acquire("refresh"); err != nil {
		return BuyerView{}, err
	}
	defer b.busy.release("refresh")

	me := b.ledger.Account()

	recent, err := b.scanner.ScanOrders(ctx, b.window, nil)
	if err != nil {
		b.log.Record("Refresh error: %s", err)
		return BuyerView{}, err
	}

	view := BuyerView{Account: me.Hex()}
	for _, order := range recent {
		if order.Buyer != me {
			continue
		}
		view.Orders = append(view.Orders, b.row(ctx, order))
	}

	b.log.Record("Loaded %d recent orders; showing %d of yours.", len(recent), len(view.Orders))
	return view, nil
}

func (b *Buyer) row(ctx context.Context, order model.Order) OrderRow {
	seller := "any"
	if order.SellerLocked() {
		seller = order.Seller.Hex()
	}
	return OrderRow{
		ID:          order.ID,
		Status:      order.Status(),
		Buyer:       order.Buyer.Hex(),
		Seller:      seller,
		PayToken:    order.PayToken.Hex(),
		PayAmount:   units.FromBase(order.PayAmount, b.ledger.Decimals(ctx, order.PayToken)),
		AssetToken:  order.AssetToken.Hex(),
		AssetAmount: units.FromBase(order.AssetAmount, b.ledger.Decimals(ctx, order.AssetToken)),
		CanCancel:   order.Open(),
	}
}

// Create validates the form, tops up the pay-token allowance when needed,
// submits the order and rescans once the transaction has settled.
func (b *Buyer) Create(ctx context.Context, req CreateOrderRequest) error {
	if err := b.busy.acquire("create"); err != nil {
		return err
	}
	defer b.busy.release("create")

	if err := b.create(ctx, req); err != nil {
		b.log.Record("Create error: %s", err)
		return err
	}

	_, err := b.Refresh(ctx)
	return err
}

func (b *Buyer) create(ctx context.Context, req CreateOrderRequest) error {
	payToken, err := parseAddress(req.PayToken, "pay token")
	if err != nil {
		return err
	}
	assetToken, err := parseAddress(req.AssetToken, "asset token")
	if err != nil {
		return err
	}

	// blank seller means any seller may fill
	seller := common.Address{}
	if s := strings.TrimSpace(req.Seller); s != "" {
		if seller, err = parseAddress(s, "seller"); err != nil {
			return err
		}
	}

	payAmount, err := units.ToBase(req.PayAmount, b.ledger.Decimals(ctx, payToken))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadInput, err)
	}
	assetAmount, err := units.ToBase(req.AssetAmount, b.ledger.Decimals(ctx, assetToken))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadInput, err)
	}
	if payAmount.Sign() <= 0 || assetAmount.Sign() <= 0 {
		return model.ErrAmountNotPositive
	}

	me := b.ledger.Account()
	if err := b.guard.Ensure(ctx, payToken, me, b.ledger.OrderBookAddress(), payAmount); err != nil {
		return err
	}

	b.log.Record("Creating order…")
	tx, err := b.ledger.CreateOrder(ctx, seller, payToken, payAmount, assetToken, assetAmount)
	if err != nil {
		return err
	}
	b.log.Record("create tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	b.log.Record("order created.")

	b.logger.Info("Order created",
		zap.String("buyer", me.Hex()),
		zap.String("pay_amount", payAmount.String()),
		zap.String("asset_amount", assetAmount.String()))
	return nil
}

// Cancel submits a cancellation for one of the buyer's own open orders.
func (b *Buyer) Cancel(ctx context.Context, id uint64) error {
	if err := b.busy.acquire("cancel"); err != nil {
		return err
	}
	defer b.busy.release("cancel")

	if err := b.cancel(ctx, id); err != nil {
		b.log.Record("Cancel error: %s", err)
		return err
	}

	_, err := b.Refresh(ctx)
	return err
}

func (b *Buyer) cancel(ctx context.Context, id uint64) error {
	tx, err := b.ledger.CancelOrder(ctx, id)
	if err != nil {
		return err
	}
	b.log.Record("cancel tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	b.log.Record("order %d canceled.", id)
	return nil
}

func parseAddress(s, field string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q", model.ErrBadAddress, field, s)
	}
	return common.HexToAddress(s), nil
}
