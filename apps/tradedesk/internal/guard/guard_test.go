package guard

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/ledger"
)

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

type fakeTokenBook struct {
	allowance *big.Int
	readErr   error

	approveErr error
	waitErr    error
	approvals  []*big.Int
}

func (f *fakeTokenBook) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeTokenBook) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.PendingTx, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	granted := new(big.Int).Set(amount)
	f.approvals = append(f.approvals, granted)
	return &fakeTx{
		hash:    common.BytesToHash([]byte("approve")),
		waitErr: f.waitErr,
		onWait: func() {
			if f.waitErr == nil {
				f.allowance = granted
			}
		},
	}, nil
}

var (
	testToken   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testOwner   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testSpender = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func newTestGuard(tokens TokenBook) (*Guard, *activity.Log) {
	log := activity.NewLog()
	return NewGuard(tokens, log, zap.NewNop()), log
}

func TestEnsureSendsNothingWhenAllowanceSuffices(t *testing.T) {
	for _, current := range []int64{15, 16, 1_000_000} {
		book := &fakeTokenBook{allowance: big.NewInt(current)}
		g, log := newTestGuard(book)

		err := g.Ensure(context.Background(), testToken, testOwner, testSpender, big.NewInt(15))
		require.NoError(t, err)
		assert.Empty(t, book.approvals, "allowance %d should not trigger an approval", current)

		entries := log.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "Sufficient allowance already set.", entries[0].Message)
	}
}

func TestEnsureApprovesExactlyRequiredAmount(t *testing.T) {
	book := &fakeTokenBook{allowance: big.NewInt(10)}
	g, log := newTestGuard(book)

	err := g.Ensure(context.Background(), testToken, testOwner, testSpender, big.NewInt(15))
	require.NoError(t, err)

	// exactly one approval, for the required amount, not unlimited and
	// not just the shortfall
	require.Len(t, book.approvals, 1)
	assert.Equal(t, "15", book.approvals[0].String())

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0].Message, "Approving 15 units")
	assert.Contains(t, entries[1].Message, "approve tx: ")
	assert.Equal(t, "approve confirmed.", entries[2].Message)
}

func TestEnsureIsIdempotent(t *testing.T) {
	book := &fakeTokenBook{allowance: big.NewInt(0)}
	g, _ := newTestGuard(book)

	required := big.NewInt(42)
	require.NoError(t, g.Ensure(context.Background(), testToken, testOwner, testSpender, required))
	require.NoError(t, g.Ensure(context.Background(), testToken, testOwner, testSpender, required))

	assert.Len(t, book.approvals, 1, "second call with the same requirement must not approve again")
}

func TestEnsureAllowanceReadFailure(t *testing.T) {
	book := &fakeTokenBook{readErr: errors.New("rpc timeout")}
	g, _ := newTestGuard(book)

	err := g.Ensure(context.Background(), testToken, testOwner, testSpender, big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read allowance")
	assert.Empty(t, book.approvals)
}

func TestEnsureApprovalRejected(t *testing.T) {
	book := &fakeTokenBook{allowance: big.NewInt(0), approveErr: errors.New("nonce too low")}
	g, _ := newTestGuard(book)

	err := g.Ensure(context.Background(), testToken, testOwner, testSpender, big.NewInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval failed")
}

func TestEnsureApprovalNotConfirmed(t *testing.T) {
	book := &fakeTokenBook{allowance: big.NewInt(0), waitErr: errors.New("transaction reverted")}
	g, _ := newTestGuard(book)

	err := g.Ensure(context.Background(), testToken, testOwner, testSpender, big.NewInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval not confirmed")
}
