package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	ids   []string
	err   error
	after time.Duration
}

func (s *stubLister) ListStalePending(_ context.Context, olderThan time.Duration, limit int) ([]string, error) {
	s.after = olderThan
	if len(s.ids) > limit {
		return s.ids[:limit], s.err
	}
	return s.ids, s.err
}

type sliceDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *sliceDispatcher) Dispatch(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, id)
	return nil
}

func (d *sliceDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func TestReconciler_Sweep(t *testing.T) {
	l := &stubLister{ids: []string{"a", "b", "c"}}
	d := &sliceDispatcher{}
	r := &Reconciler{Orders: l, Dispatcher: d, After: 2 * time.Minute, Batch: 2}

	n, err := r.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, d.ids)
	assert.Equal(t, 2*time.Minute, l.after)
}

func TestReconciler_SweepErrors(t *testing.T) {
	_, err := (&Reconciler{Orders: &stubLister{err: errors.New("db down")}, Dispatcher: &sliceDispatcher{}}).Sweep(context.Background())
	assert.Error(t, err)

	n, err := (&Reconciler{Orders: &stubLister{ids: []string{"a"}}, Dispatcher: &sliceDispatcher{err: ErrQueueClosed}}).Sweep(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Zero(t, n)
}

func TestReconciler_Run(t *testing.T) {
	d := &sliceDispatcher{}
	r := &Reconciler{Orders: &stubLister{ids: []string{"a"}}, Dispatcher: d, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return d.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestReconciler_Disabled(t *testing.T) {
	assert.NoError(t, (&Reconciler{}).Run(context.Background()))
}
