package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const reconcileAfter = 5 * time.Minute

// PaymentReconciler is satisfied by *services.PaymentService.
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// PollPayments settles payments whose webhook never arrived.
func PollPayments(ctx context.Context, reconciler PaymentReconciler, pollInterval time.Duration) {
	zap.L().Info("[RECONCILE] starting payment polling", zap.Duration("every", pollInterval))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("[RECONCILE] payment polling stopped")
			return
		case <-ticker.C:
			settled, err := reconciler.ReconcilePending(ctx, reconcileAfter)
			if err != nil {
				zap.L().Error("[RECONCILE] polling failed", zap.Error(err))
				continue
			}
			if settled > 0 {
				zap.L().Info("[RECONCILE] settled payments", zap.Int("count", settled))
			}
		}
	}
}
