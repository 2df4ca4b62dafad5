package desk

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/model"
)

// fakeTx is a settled-on-demand pending transaction handle.
type fakeTx struct {
	hash    common.Hash
	waitErr error
	onWait  func()
}

func (f *fakeTx) Hash() common.Hash { return f.hash }

func (f *fakeTx) Wait(ctx context.Context) error {
	if f.onWait != nil {
		f.onWait()
	}
	return f.waitErr
}

// fakeLedger is an in-memory stand-in for the remote contract services. It
// records the order of calls in events so tests can assert sequencing
// (e.g. approval before create, settle before rescan).
type fakeLedger struct {
	mu sync.Mutex

	me        common.Address
	orderBook common.Address
	vault     common.Address

	nextID     uint64
	orders     map[uint64]model.Order
	docs       map[uint64][]model.Document
	allowances map[string]*big.Int
	balances   map[string]*big.Int
	shares     map[common.Address]*big.Int
	decimals   map[common.Address]int
	vaultToken common.Address

	approveErr error
	fillErr    error
	clock      uint64
	txSeq      int
	events     []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		me:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		orderBook:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		vault:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
		orders:     make(map[uint64]model.Order),
		docs:       make(map[uint64][]model.Document),
		allowances: make(map[string]*big.Int),
		balances:   make(map[string]*big.Int),
		shares:     make(map[common.Address]*big.Int),
		decimals:   make(map[common.Address]int),
	}
}

func (f *fakeLedger) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeLedger) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeLedger) newTx(kind string, commit func()) *fakeTx {
	f.mu.Lock()
	f.txSeq++
	seq := f.txSeq
	f.mu.Unlock()
	return &fakeTx{
		hash: common.BytesToHash([]byte(fmt.Sprintf("%s-%d", kind, seq))),
		onWait: func() {
			f.record("wait:" + kind)
			if commit != nil {
				commit()
			}
		},
	}
}

func akey(token, owner, spender common.Address) string {
	return token.Hex() + "|" + owner.Hex() + "|" + spender.Hex()
}

func bkey(token, owner common.Address) string {
	return token.Hex() + "|" + owner.Hex()
}

func (f *fakeLedger) addOrder(o model.Order) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = f.nextID
	f.orders[f.nextID] = o
	f.nextID++
	return o.ID
}

func (f *fakeLedger) setAllowance(token, owner, spender common.Address, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[akey(token, owner, spender)] = big.NewInt(amount)
}

// ---- session ----

func (f *fakeLedger) Account() common.Address          { return f.me }
func (f *fakeLedger) OrderBookAddress() common.Address { return f.orderBook }
func (f *fakeLedger) VaultAddress() common.Address     { return f.vault }

func (f *fakeLedger) Decimals(ctx context.Context, token common.Address) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.decimals[token]; ok {
		return d
	}
	return 18
}

// ---- token service ----

func (f *fakeLedger) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.record("allowance")
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.allowances[akey(token, owner, spender)]; ok {
		return new(big.Int).Set(cur), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.PendingTx, error) {
	f.record("approve:" + amount.String())
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	granted := new(big.Int).Set(amount)
	return f.newTx("approve", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.allowances[akey(token, f.me, spender)] = granted
	}), nil
}

func (f *fakeLedger) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[bkey(token, owner)]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

// ---- vault service ----

func (f *fakeLedger) VaultToken(ctx context.Context) (common.Address, error) {
	return f.vaultToken, nil
}

func (f *fakeLedger) VaultBalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.shares[owner]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) Deposit(ctx context.Context, amount *big.Int) (ledger.PendingTx, error) {
	f.record("deposit:" + amount.String())
	return f.newTx("deposit", nil), nil
}

func (f *fakeLedger) Withdraw(ctx context.Context, amount *big.Int) (ledger.PendingTx, error) {
	f.record("withdraw:" + amount.String())
	return f.newTx("withdraw", nil), nil
}

// ---- order book service ----

func (f *fakeLedger) NextOrderID(ctx context.Context) (uint64, error) {
	f.record("scan")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextID, nil
}

func (f *fakeLedger) OrderAt(ctx context.Context, id uint64) (model.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Absent() {
		return model.Order{}, false, nil
	}
	return order, true, nil
}

func (f *fakeLedger) CreateOrder(ctx context.Context, seller, payToken common.Address, payAmount *big.Int, assetToken common.Address, assetAmount *big.Int) (ledger.PendingTx, error) {
	f.record("createOrder")
	return f.newTx("create", func() {
		f.addOrder(model.Order{
			Buyer:       f.me,
			Seller:      seller,
			PayToken:    payToken,
			PayAmount:   payAmount,
			AssetToken:  assetToken,
			AssetAmount: assetAmount,
		})
	}), nil
}

func (f *fakeLedger) CancelOrder(ctx context.Context, id uint64) (ledger.PendingTx, error) {
	f.record("cancelOrder")
	return f.newTx("cancel", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		order := f.orders[id]
		order.Canceled = true
		f.orders[id] = order
	}), nil
}

func (f *fakeLedger) FillOrder(ctx context.Context, id uint64) (ledger.PendingTx, error) {
	f.record("fillOrder")
	if f.fillErr != nil {
		return nil, f.fillErr
	}
	return f.newTx("fill", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		order := f.orders[id]
		order.Filled = true
		f.orders[id] = order
	}), nil
}

// ---- document registry service ----

func (f *fakeLedger) DocCount(ctx context.Context, orderID uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.docs[orderID])), nil
}

func (f *fakeLedger) DocAt(ctx context.Context, orderID, index uint64) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.docs[orderID]
	if index >= uint64(len(list)) {
		return model.Document{}, fmt.Errorf("no document %d for order %d", index, orderID)
	}
	return list[index], nil
}

func (f *fakeLedger) IsAccepted(ctx context.Context, orderID uint64, docType model.DocType) (bool, error) {
	f.record("isAccepted")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs[orderID] {
		if doc.Type == docType && doc.Accepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) RegisterDocument(ctx context.Context, orderID uint64, docType model.DocType, hash common.Hash, uri string) (ledger.PendingTx, error) {
	f.record("registerDocument")
	return f.newTx("register", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.clock++
		f.docs[orderID] = append(f.docs[orderID], model.Document{
			OrderID:    orderID,
			Index:      uint64(len(f.docs[orderID])),
			Type:       docType,
			Hash:       hash,
			URI:        uri,
			Uploader:   f.me,
			UploadedAt: f.clock,
		})
	}), nil
}

func (f *fakeLedger) AcceptDocument(ctx context.Context, orderID, index uint64) (ledger.PendingTx, error) {
	f.record("acceptDocument")
	return f.newTx("accept", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if index < uint64(len(f.docs[orderID])) {
			f.docs[orderID][index].Accepted = true
			f.docs[orderID][index].AcceptedBy = f.me
		}
	}), nil
}

func (f *fakeLedger) RejectDocument(ctx context.Context, orderID, index uint64) (ledger.PendingTx, error) {
	f.record("rejectDocument")
	return f.newTx("reject", func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if index < uint64(len(f.docs[orderID])) {
			f.docs[orderID][index].Rejected = true
		}
	}), nil
}

// fakeStore is an in-memory artifact store.
type fakeStore struct {
	canUpload bool
	uploaded  map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{canUpload: true, uploaded: make(map[string][]byte)}
}

func (f *fakeStore) CanUpload() bool { return f.canUpload }

func (f *fakeStore) Upload(ctx context.Context, name string, payload []byte) (string, error) {
	f.uploaded[name] = payload
	return "ipfs://fake-" + name, nil
}
