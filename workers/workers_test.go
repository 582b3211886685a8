package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

type countingRefresher struct {
	runs atomic.Int32
}

func (c *countingRefresher) RefreshAll(context.Context) (services.RefreshReport, error) {
	c.runs.Add(1)
	return services.RefreshReport{}, nil
}

func TestViewRefreshSchedulerRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher := &countingRefresher{}

	sched, err := StartViewRefreshScheduler(ctx, refresher, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, sched)

	assert.Eventually(t, func() bool { return refresher.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

type fakeReconciler struct {
	calls atomic.Int32
	fail  bool
}

func (f *fakeReconciler) ReconcilePending(_ context.Context, olderThan time.Duration) (int, error) {
	f.calls.Add(1)
	if olderThan != reconcileAfter {
		return 0, errors.New("unexpected threshold")
	}
	if f.fail {
		return 0, errors.New("db down")
	}
	return 1, nil
}

func TestPollPaymentsStopsWithContext(t *testing.T) {
	for _, fail := range []bool{false, true} {
		ctx, cancel := context.WithCancel(context.Background())
		rec := &fakeReconciler{fail: fail}
		done := make(chan struct{})
		go func() {
			PollPayments(ctx, rec, 5*time.Millisecond)
			close(done)
		}()

		assert.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("PollPayments did not return after cancel")
		}
	}
}
