package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/model"
)

type fakeOrderSource struct {
	nextID    uint64
	orders    map[uint64]model.Order
	nextErr   error
	fetchErr  map[uint64]error
	requested []uint64
}

func (f *fakeOrderSource) NextOrderID(ctx context.Context) (uint64, error) {
	return f.nextID, f.nextErr
}

func (f *fakeOrderSource) OrderAt(ctx context.Context, id uint64) (model.Order, bool, error) {
	f.requested = append(f.requested, id)
	if err := f.fetchErr[id]; err != nil {
		return model.Order{}, false, err
	}
	order, ok := f.orders[id]
	return order, ok, nil
}

type fakeDocSource struct {
	docs     map[uint64][]model.Document
	countErr error
}

func (f *fakeDocSource) DocCount(ctx context.Context, orderID uint64) (uint64, error) {
	return uint64(len(f.docs[orderID])), f.countErr
}

func (f *fakeDocSource) DocAt(ctx context.Context, orderID, index uint64) (model.Document, error) {
	list := f.docs[orderID]
	if index >= uint64(len(list)) {
		return model.Document{}, fmt.Errorf("no document %d", index)
	}
	return list[index], nil
}

func orderWithBuyer(id uint64) model.Order {
	return model.Order{
		ID:    id,
		Buyer: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
}

func TestScanOrdersEmptyLedger(t *testing.T) {
	source := &fakeOrderSource{nextID: 0}
	s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

	orders, err := s.ScanOrders(context.Background(), 50, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, source.requested, "nothing should be fetched from an empty ledger")
}

func TestScanOrdersStaysInsideWindow(t *testing.T) {
	source := &fakeOrderSource{nextID: 200, orders: map[uint64]model.Order{}}
	for id := uint64(0); id < 200; id++ {
		source.orders[id] = orderWithBuyer(id)
	}
	s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

	orders, err := s.ScanOrders(context.Background(), 50, nil)
	require.NoError(t, err)
	require.Len(t, orders, 50)

	for _, id := range source.requested {
		assert.GreaterOrEqual(t, id, uint64(150))
		assert.Less(t, id, uint64(200))
	}
	assert.Equal(t, uint64(150), orders[0].ID, "scan walks ascending from the window's lower bound")
	assert.Equal(t, uint64(199), orders[len(orders)-1].ID)
}

func TestScanOrdersWindowLargerThanLedger(t *testing.T) {
	source := &fakeOrderSource{
		nextID: 3,
		orders: map[uint64]model.Order{
			0: orderWithBuyer(0),
			1: orderWithBuyer(1),
			2: orderWithBuyer(2),
		},
	}
	s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

	orders, err := s.ScanOrders(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Len(t, orders, 3, "window larger than the ledger clamps to id 0")
}

func TestScanOrdersSkipsAbsentSlots(t *testing.T) {
	source := &fakeOrderSource{
		nextID: 5,
		orders: map[uint64]model.Order{
			1: orderWithBuyer(1),
			3: orderWithBuyer(3),
		},
	}
	s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

	orders, err := s.ScanOrders(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(1), orders[0].ID)
	assert.Equal(t, uint64(3), orders[1].ID)
}

func TestScanOrdersAppliesKeepPredicate(t *testing.T) {
	filled := orderWithBuyer(1)
	filled.Filled = true
	source := &fakeOrderSource{
		nextID: 3,
		orders: map[uint64]model.Order{
			0: orderWithBuyer(0),
			1: filled,
			2: orderWithBuyer(2),
		},
	}
	s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

	orders, err := s.ScanOrders(context.Background(), 10, model.Order.Open)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		assert.True(t, order.Open())
	}
}

func TestScanOrdersPropagatesErrors(t *testing.T) {
	t.Run("next id read fails", func(t *testing.T) {
		source := &fakeOrderSource{nextErr: errors.New("rpc down")}
		s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

		_, err := s.ScanOrders(context.Background(), 10, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read next order id")
	})

	t.Run("order fetch fails", func(t *testing.T) {
		source := &fakeOrderSource{
			nextID:   2,
			orders:   map[uint64]model.Order{0: orderWithBuyer(0)},
			fetchErr: map[uint64]error{1: errors.New("rpc down")},
		}
		s := NewScanner(source, &fakeDocSource{}, zap.NewNop())

		_, err := s.ScanOrders(context.Background(), 10, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch order 1")
	})
}

func TestScanDocuments(t *testing.T) {
	docs := &fakeDocSource{docs: map[uint64][]model.Document{
		7: {
			{OrderID: 7, Index: 0, Type: model.DocTypeEBL},
			{OrderID: 7, Index: 1, Type: model.DocTypePackingList},
		},
	}}
	s := NewScanner(&fakeOrderSource{}, docs, zap.NewNop())

	list, err := s.ScanDocuments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(0), list[0].Index)
	assert.Equal(t, uint64(1), list[1].Index)

	empty, err := s.ScanDocuments(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
