package worker

import (
	"context"
	"encoding/json"
	"time"

	"payment-gateway/internal/broker"
	"payment-gateway/internal/models"
	"payment-gateway/internal/redisclient"
	"payment-gateway/internal/service"
	"payment-gateway/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ReconcileWorker runs reconciliation passes on a fixed interval. Overlap
// with manually triggered passes is safe; the engine guards per record.
type ReconcileWorker struct {
	reconciler *service.Reconciler
	redis      *redisclient.Client
	interval   time.Duration
	logger     *zap.Logger
}

// NewReconcileWorker creates a new scheduled reconcile worker
func NewReconcileWorker(reconciler *service.Reconciler, redis *redisclient.Client, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		redis:      redis,
		interval:   interval,
		logger:     util.GetLogger(),
	}
}

// Start runs the worker loop until the context is cancelled
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconcile worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once at startup so a restart does not delay reconciliation by a
	// full interval.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconcile worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReconcileWorker) runOnce(ctx context.Context) {
	summary, err := w.reconciler.UpdateStates(ctx)
	if err != nil {
		w.logger.Error("Reconciliation pass failed", zap.Error(err))
		return
	}

	if w.redis != nil {
		if err := w.redis.SetLastReconcileRun(ctx, summary); err != nil {
			w.logger.Warn("Failed to record reconcile run", zap.Error(err))
		}
	}
}

// TriggerWorker consumes reconcile-request events so an external scheduler
// can ask for a pass via Kafka.
type TriggerWorker struct {
	consumer   *broker.Consumer
	reconciler *service.Reconciler
	logger     *zap.Logger
}

// NewTriggerWorker creates a new reconcile trigger worker
func NewTriggerWorker(consumer *broker.Consumer, reconciler *service.Reconciler) *TriggerWorker {
	return &TriggerWorker{
		consumer:   consumer,
		reconciler: reconciler,
		logger:     util.GetLogger(),
	}
}

// Start starts consuming trigger events
func (w *TriggerWorker) Start(ctx context.Context) error {
	return w.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var event models.ReconcileRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			w.logger.Error("Failed to unmarshal trigger event", zap.Error(err))
			return err
		}
		if event.EventType != models.EventTypeReconcileRequested {
			return nil
		}

		w.logger.Info("Reconciliation requested",
			zap.String("event_id", event.EventID),
			zap.String("requested_by", event.RequestedBy))

		summary, err := w.reconciler.UpdateStates(ctx)
		if err != nil {
			w.logger.Error("Triggered reconciliation failed", zap.Error(err))
			return err
		}
		w.logger.Info("Triggered reconciliation finished", zap.Int("changed", summary.Changed))
		return nil
	})
}

// Stop stops the trigger worker
func (w *TriggerWorker) Stop() error {
	return w.consumer.Close()
}
