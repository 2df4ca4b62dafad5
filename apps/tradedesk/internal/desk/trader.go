package desk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/gate"
	"tradedesk/apps/tradedesk/internal/guard"
	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/model"
	"tradedesk/apps/tradedesk/internal/scanner"
	"tradedesk/apps/tradedesk/internal/units"
)

// TraderLedger is the slice of the ledger the trader desk needs beyond the
// scanner, the gate evaluator and the allowance guard.
type TraderLedger interface {
	Account() common.Address
	OrderBookAddress() common.Address
	Decimals(ctx context.Context, token common.Address) int
	OrderAt(ctx context.Context, id uint64) (model.Order, bool, error)
	FillOrder(ctx context.Context, id uint64) (ledger.PendingTx, error)
}

// TraderRow annotates an open order with its document gate state.
type TraderRow struct {
	ID          uint64 `json:"id"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"` // "any" when not locked
	PayToken    string `json:"pay_token"`
	PayAmount   string `json:"pay_amount"`
	AssetToken  string `json:"asset_token"`
	AssetAmount string `json:"asset_amount"`
	EBL         string `json:"ebl"` // ACCEPTED or PENDING
	CanFill     bool   `json:"can_fill"`
}

type TraderView struct {
	Account string      `json:"account"`
	Orders  []TraderRow `json:"orders"`
}

type Trader struct {
	ledger  TraderLedger
	scanner *scanner.Scanner
	gate    *gate.Evaluator
	guard   *guard.Guard
	window  uint64
	busy    *busyFlags
	log     *activity.Log
	logger  *zap.Logger
}

func NewTrader(l TraderLedger, sc *scanner.Scanner, ev *gate.Evaluator, g *guard.Guard, window uint64, log *activity.Log, logger *zap.Logger) *Trader {
	return &Trader{
		ledger:  l,
		scanner: sc,
		gate:    ev,
		guard:   g,
		window:  window,
		busy:    newBusyFlags(),
		log:     log,
		logger:  logger,
	}
}

func (t *Trader) Log() *activity.Log { return t.log }

// Refresh loads the open orders in the recent window and evaluates the eBL
// gate for each. Gate state is queried fresh every scan.
func (t *Trader) Refresh(ctx context.Context) (TraderView, error) {
	if err := t.busy.acquire("refresh"); err != nil {
		return TraderView{}, err
	}
	defer t.busy.release("refresh")

	open, err := t.scanner.ScanOrders(ctx, t.window, model.Order.Open)
	if err != nil {
		t.log.Record("Refresh error: %s", err)
		return TraderView{}, err
	}

	view := TraderView{Account: t.ledger.Account().Hex()}
	for _, order := range open {
		accepted, err := t.gate.IsOpen(ctx, order.ID, model.DocTypeEBL)
		if err != nil {
			t.logger.Warn("Gate evaluation failed, treating as closed",
				zap.Uint64("order_id", order.ID), zap.Error(err))
			accepted = false
		}

		seller := "any"
		if order.SellerLocked() {
			seller = order.Seller.Hex()
		}
		eblStatus := "PENDING"
		if accepted {
			eblStatus = "ACCEPTED"
		}

		view.Orders = append(view.Orders, TraderRow{
			ID:          order.ID,
			Buyer:       order.Buyer.Hex(),
			Seller:      seller,
			PayToken:    order.PayToken.Hex(),
			PayAmount:   units.FromBase(order.PayAmount, t.ledger.Decimals(ctx, order.PayToken)),
			AssetToken:  order.AssetToken.Hex(),
			AssetAmount: units.FromBase(order.AssetAmount, t.ledger.Decimals(ctx, order.AssetToken)),
			EBL:         eblStatus,
			CanFill:     accepted,
		})
	}

	t.log.Record("Loaded %d open orders (eBL gate checked).", len(view.Orders))
	return view, nil
}

// Fill settles an order. All pre-flight checks (seller lock, document gate)
// run against fresh ledger state and fail before any transaction is
// submitted; only then is the asset allowance topped up and the fill sent.
func (t *Trader) Fill(ctx context.Context, id uint64) error {
	if err := t.busy.acquire("fill"); err != nil {
		return err
	}
	defer t.busy.release("fill")

	if err := t.fill(ctx, id); err != nil {
		t.log.Record("Fill error: %s", err)
		return err
	}

	_, err := t.Refresh(ctx)
	return err
}

func (t *Trader) fill(ctx context.Context, id uint64) error {
	order, ok, err := t.ledger.OrderAt(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrOrderNotFound
	}
	if !order.Open() {
		return model.ErrOrderClosed
	}

	me := t.ledger.Account()
	if order.SellerLocked() && order.Seller != me {
		return model.ErrSellerLocked
	}

	accepted, err := t.gate.IsOpen(ctx, id, model.DocTypeEBL)
	if err != nil {
		return err
	}
	if !accepted {
		return model.ErrGateClosed
	}

	if err := t.guard.Ensure(ctx, order.AssetToken, me, t.ledger.OrderBookAddress(), t.required(order)); err != nil {
		return err
	}

	t.log.Record("Filling order %d…", id)
	tx, err := t.ledger.FillOrder(ctx, id)
	if err != nil {
		return err
	}
	t.log.Record("fill tx: %s", tx.Hash().Hex())

	if err := tx.Wait(ctx); err != nil {
		return err
	}
	t.log.Record("order %d filled.", id)

	t.logger.Info("Order filled",
		zap.Uint64("order_id", id),
		zap.String("seller", me.Hex()))
	return nil
}

func (t *Trader) required(order model.Order) *big.Int {
	if order.AssetAmount == nil {
		return big.NewInt(0)
	}
	return order.AssetAmount
}
