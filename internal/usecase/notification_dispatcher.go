package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const (
	defaultNotificationWorkers     = 4
	defaultNotificationMaxAttempts = 3
	defaultNotificationBackoff     = 2 * time.Second

	notificationResultDelivered = "delivered"
	notificationResultRetried   = "retried"
	notificationResultFailed    = "failed"
	notificationResultDropped   = "dropped"
)

type NotificationDispatcherConfig struct {
	Workers      int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// NotificationDispatcher delivers settlement intents on a worker pool after
// commit. Delivery failures are logged and counted, never returned.
type NotificationDispatcher struct {
	sink    NotificationSink
	pool    *ants.Pool
	clock   clockwork.Clock
	metrics Metrics
	logger  *logging.Logger
	cfg     NotificationDispatcherConfig

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

func NewNotificationDispatcher(
	sink NotificationSink,
	clock clockwork.Clock,
	metrics Metrics,
	logger *logging.Logger,
	cfg NotificationDispatcherConfig,
) (*NotificationDispatcher, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: notification sink is required", ErrInvalidInput)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultNotificationWorkers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultNotificationMaxAttempts
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = defaultNotificationBackoff
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create notification worker pool: %w", err)
	}

	return &NotificationDispatcher{
		sink:    sink,
		pool:    pool,
		clock:   clock,
		metrics: metricsOrNop(metrics),
		logger:  logger.With("component", "notification_dispatcher", "sink", sink.Name()),
		cfg:     cfg,
	}, nil
}

// Dispatch queues every intent and returns without waiting for delivery.
// Intents dispatched after Close are dropped.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, intents []settlement.NotificationIntent) {
	if len(intents) == 0 {
		return
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		for _, intent := range intents {
			d.drop(ctx, intent, ErrDispatcherClosed)
		}
		return
	}
	d.inflight.Add(len(intents))
	d.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, intent := range intents {
		if err := d.pool.Submit(func() {
			defer d.inflight.Done()
			d.deliver(detached, intent)
		}); err != nil {
			d.inflight.Done()
			d.drop(ctx, intent, err)
		}
	}
}

func (d *NotificationDispatcher) drop(ctx context.Context, intent settlement.NotificationIntent, err error) {
	d.metrics.Notification(d.sink.Name(), notificationResultDropped)
	d.logger.WarnContext(ctx, "notification dropped",
		"intent_id", intent.ID,
		"team_id", intent.TeamID,
		"error", err,
	)
}

func (d *NotificationDispatcher) deliver(ctx context.Context, intent settlement.NotificationIntent) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationDispatcher.deliver")
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		lastErr = d.sink.Publish(ctx, intent)
		if lastErr == nil {
			d.metrics.Notification(d.sink.Name(), notificationResultDelivered)
			d.logger.DebugContext(ctx, "notification delivered",
				"intent_id", intent.ID,
				"team_id", intent.TeamID,
				"attempt", attempt,
			)
			return
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}

		d.metrics.Notification(d.sink.Name(), notificationResultRetried)
		d.logger.WarnContext(ctx, "notification attempt failed, retrying",
			"intent_id", intent.ID,
			"attempt", attempt,
			"error", lastErr,
		)
		if d.cfg.RetryBackoff > 0 {
			d.clock.Sleep(time.Duration(attempt) * d.cfg.RetryBackoff)
		}
	}

	d.metrics.Notification(d.sink.Name(), notificationResultFailed)
	d.logger.ErrorContext(ctx, "notification delivery failed",
		"intent_id", intent.ID,
		"team_id", intent.TeamID,
		"owner_user_id", intent.OwnerUserID,
		"attempts", d.cfg.MaxAttempts,
		"error", lastErr,
	)
}

// Close stops accepting intents, waits up to timeout for queued deliveries,
// then releases the pool. Only the first call does any work.
func (d *NotificationDispatcher) Close(timeout time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-d.clock.After(timeout):
		d.logger.Warn("notification dispatcher closed with deliveries in flight", "running", d.pool.Running())
	}
	return d.pool.ReleaseTimeout(timeout)
}
