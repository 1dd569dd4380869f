package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/invoicescan/account-service/internal/ports"
)

// ErrDispatchQueueFull is returned by Enqueue when the outbound queue stays
// full past the enqueue timeout. Callers treat it as a non-fatal warning.
var ErrDispatchQueueFull = errors.New("notification queue full")

// Dispatcher hands mail intents to the transport over a bounded queue drained
// by a background worker. Enqueue returns once the queue accepts the intent;
// actual publishing and delivery are decoupled from the caller.
type Dispatcher struct {
	logger         *slog.Logger
	publisher      ports.MailPublisher
	queue          chan ports.MailIntent
	enqueueTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(logger *slog.Logger, publisher ports.MailPublisher, queueSize int, enqueueTimeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if enqueueTimeout <= 0 {
		enqueueTimeout = 250 * time.Millisecond
	}
	return &Dispatcher{
		logger:         logger,
		publisher:      publisher,
		queue:          make(chan ports.MailIntent, queueSize),
		enqueueTimeout: enqueueTimeout,
		done:           make(chan struct{}),
	}
}

// Enqueue blocks up to the configured timeout for queue space, then gives up
// so the parent operation is never failed by notification backpressure.
func (d *Dispatcher) Enqueue(ctx context.Context, intent ports.MailIntent) error {
	timer := time.NewTimer(d.enqueueTimeout)
	defer timer.Stop()

	select {
	case d.queue <- intent:
		return nil
	case <-timer.C:
		return ErrDispatchQueueFull
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatchQueueFull
	}
}

// Run drains the queue until context cancellation. Publish failures are
// logged and the intent dropped; the mail transport owns redelivery.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.closeOnce.Do(func() { close(d.done) })

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return ctx.Err()
		case intent := <-d.queue:
			d.publish(ctx, intent)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, intent ports.MailIntent) {
	if err := d.publisher.Publish(ctx, intent); err != nil {
		d.logger.ErrorContext(ctx, "mail intent publish failed",
			"module", "dispatcher",
			"operation", "publish_intent",
			"outcome", "failure",
			"kind", intent.Kind,
			"account_id", intent.AccountID,
			"error", err,
		)
		return
	}
	d.logger.InfoContext(ctx, "mail intent published",
		"module", "dispatcher",
		"operation", "publish_intent",
		"outcome", "success",
		"kind", intent.Kind,
		"account_id", intent.AccountID,
	)
}

// drain makes a final best-effort pass over queued intents during shutdown.
func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case intent := <-d.queue:
			d.publish(ctx, intent)
		default:
			return
		}
	}
}
