package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seed(stock int, amounts ...int) (*memStore, []string) {
	s := newMemStore()
	s.addProduct(Product{ID: "p1", Name: "Widget", Price: 500, Stock: stock})
	ids := make([]string, 0, len(amounts))
	for i, a := range amounts {
		id := string(rune('a' + i))
		s.addOrder(Order{ID: id, ProductID: "p1", Amount: a, TotalPrice: int64(a) * 500, Status: StatusPending})
		ids = append(ids, id)
	}
	return s, ids
}

func TestValidate_Success(t *testing.T) {
	s, ids := seed(10, 3)
	v := NewValidator(s)

	out, err := v.Validate(context.Background(), ids[0])
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "Widget", out.ProductName)
	assert.Equal(t, 3, out.Requested)
	assert.Equal(t, 7, s.product("p1").Stock)
	o, _ := s.order(ids[0])
	assert.Equal(t, StatusSuccess, o.Status)
}

func TestValidate_InsufficientStockCommitsFailed(t *testing.T) {
	s, ids := seed(10, 11)
	v := NewValidator(s)

	out, err := v.Validate(context.Background(), ids[0])
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, ReasonInsufficientStock, out.Reason)
	assert.Equal(t, 11, out.Requested)
	assert.Equal(t, 10, out.Available)
	assert.Equal(t, "Widget", out.ProductName)
	assert.Equal(t, 10, s.product("p1").Stock)
	o, _ := s.order(ids[0])
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, 1, s.commits)
}

func TestValidate_ExactStockSucceeds(t *testing.T) {
	s, ids := seed(10, 10)

	out, err := NewValidator(s).Validate(context.Background(), ids[0])
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Zero(t, s.product("p1").Stock)
}

func TestValidate_Idempotent(t *testing.T) {
	s, ids := seed(10, 3)
	v := NewValidator(s)
	ctx := context.Background()

	_, err := v.Validate(ctx, ids[0])
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		out, err := v.Validate(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyProcessed, out.Kind)
		assert.Equal(t, StatusSuccess, out.Status)
	}
	assert.Equal(t, 7, s.product("p1").Stock)
}

func TestValidate_FailedOrderStaysFailed(t *testing.T) {
	s, ids := seed(1, 5)
	v := NewValidator(s)
	ctx := context.Background()

	_, err := v.Validate(ctx, ids[0])
	require.NoError(t, err)
	s.addProduct(Product{ID: "p1", Name: "Widget", Price: 500, Stock: 100})

	out, err := v.Validate(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, out.Kind)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 100, s.product("p1").Stock)
}

func TestValidate_OrderNotFound(t *testing.T) {
	s, _ := seed(10)

	_, err := NewValidator(s).Validate(context.Background(), "missing")

	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.False(t, errs.Retryable(err))
	assert.Equal(t, 10, s.product("p1").Stock)
	assert.Zero(t, s.commits)
}

func TestValidate_StorageFaultRollsBack(t *testing.T) {
	s, ids := seed(10, 3)
	s.failAt = "UpdateOrderStatus"
	s.failErr = errs.Storage("update order status", errors.New("connection reset"))

	_, err := NewValidator(s).Validate(context.Background(), ids[0])

	require.Error(t, err)
	assert.True(t, errs.Retryable(err))
	// stock was decremented inside the transaction but must not survive the rollback
	assert.Equal(t, 10, s.product("p1").Stock)
	o, _ := s.order(ids[0])
	assert.Equal(t, StatusPending, o.Status)
}

func TestValidate_ConcurrentOrdersNeverOversell(t *testing.T) {
	s, ids := seed(100, 60, 60)
	v := NewValidator(s)

	var wg sync.WaitGroup
	outs := make([]Outcome, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			out, err := v.Validate(context.Background(), id)
			assert.NoError(t, err)
			outs[i] = out
		}(i, id)
	}
	wg.Wait()

	kinds := map[OutcomeKind]int{}
	for _, o := range outs {
		kinds[o.Kind]++
	}
	assert.Equal(t, 1, kinds[OutcomeSuccess])
	assert.Equal(t, 1, kinds[OutcomeFailed])
	assert.Equal(t, 40, s.product("p1").Stock)
}

func TestValidate_ManyConcurrentKeepStockNonNegative(t *testing.T) {
	amounts := make([]int, 20)
	for i := range amounts {
		amounts[i] = 1 + i%4
	}
	s, ids := seed(17, amounts...)
	v := NewValidator(s)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = v.Validate(context.Background(), id)
		}(id)
	}
	wg.Wait()

	sold := 0
	for _, id := range ids {
		o, _ := s.order(id)
		require.NotEqual(t, StatusPending, o.Status)
		if o.Status == StatusSuccess {
			sold += o.Amount
		}
	}
	assert.GreaterOrEqual(t, s.product("p1").Stock, 0)
	assert.Equal(t, 17-sold, s.product("p1").Stock)
}

// ---- lock ordering with testify mocks ----

type mockTx struct{ mock.Mock }

func (m *mockTx) GetOrderForUpdate(ctx context.Context, id string) (Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Order), args.Error(1)
}

func (m *mockTx) GetProductForUpdate(ctx context.Context, id string) (Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Product), args.Error(1)
}

func (m *mockTx) GetProduct(ctx context.Context, id string) (Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Product), args.Error(1)
}

func (m *mockTx) InsertOrder(ctx context.Context, o Order) (Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(Order), args.Error(1)
}

func (m *mockTx) DecrementStock(ctx context.Context, id string, amount int) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockTx) UpdateOrderStatus(ctx context.Context, id string, from, to Status) error {
	return m.Called(ctx, id, from, to).Error(0)
}

type mockStore struct {
	tx  *mockTx
	err error // returned by WithTx after fn succeeds, e.g. a commit failure
}

func (s *mockStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	if err := fn(s.tx); err != nil {
		return err
	}
	return s.err
}

func TestValidate_LocksOrderBeforeProduct(t *testing.T) {
	tx := new(mockTx)
	tx.On("GetOrderForUpdate", mock.Anything, "o1").
		Return(Order{ID: "o1", ProductID: "p1", Amount: 2, Status: StatusPending}, nil)
	tx.On("GetProductForUpdate", mock.Anything, "p1").
		Return(Product{ID: "p1", Name: "Widget", Stock: 5}, nil)
	tx.On("DecrementStock", mock.Anything, "p1", 2).Return(nil)
	tx.On("UpdateOrderStatus", mock.Anything, "o1", StatusPending, StatusSuccess).Return(nil)

	out, err := NewValidator(&mockStore{tx: tx}).Validate(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out.Kind)

	tx.AssertExpectations(t)
	methods := make([]string, 0, len(tx.Calls))
	for _, c := range tx.Calls {
		methods = append(methods, c.Method)
	}
	assert.Equal(t, []string{"GetOrderForUpdate", "GetProductForUpdate", "DecrementStock", "UpdateOrderStatus"}, methods)
}

func TestValidate_AlreadyProcessedTouchesNothingElse(t *testing.T) {
	tx := new(mockTx)
	tx.On("GetOrderForUpdate", mock.Anything, "o1").
		Return(Order{ID: "o1", ProductID: "p1", Amount: 2, Status: StatusFailed}, nil)

	out, err := NewValidator(&mockStore{tx: tx}).Validate(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyProcessed, out.Kind)
	assert.Equal(t, StatusFailed, out.Status)
	tx.AssertNotCalled(t, "GetProductForUpdate", mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_CommitFailureIsAnError(t *testing.T) {
	tx := new(mockTx)
	tx.On("GetOrderForUpdate", mock.Anything, "o1").
		Return(Order{ID: "o1", ProductID: "p1", Amount: 9, Status: StatusPending}, nil)
	tx.On("GetProductForUpdate", mock.Anything, "p1").
		Return(Product{ID: "p1", Name: "Widget", Stock: 5}, nil)
	tx.On("UpdateOrderStatus", mock.Anything, "o1", StatusPending, StatusFailed).Return(nil)
	commitErr := errs.Storage("commit", errors.New("server closed the connection"))

	_, err := NewValidator(&mockStore{tx: tx, err: commitErr}).Validate(context.Background(), "o1")

	assert.ErrorIs(t, err, errs.ErrStorage)
	tx.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutcome_String(t *testing.T) {
	out := Outcome{Kind: OutcomeFailed, OrderID: "o1", ProductName: "Widget", Requested: 11, Available: 10, Reason: ReasonInsufficientStock}
	assert.Equal(t, "order o1 failed (insufficient_stock): Widget need 11, available 10", out.String())
}
