package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicescan/account-service/internal/ports"
)

func TestDispatcherPublishesQueuedIntents(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), publisher, 8, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	accountID := uuid.New()
	for i := 0; i < 3; i++ {
		if err := d.Enqueue(context.Background(), ports.MailIntent{
			Kind:      ports.MailKindVerification,
			AccountID: accountID,
			Email:     "queue@example.com",
			Code:      "123456",
		}); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(publisher.intents()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 published intents, got %d", len(publisher.intents()))
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestDispatcherEnqueueTimesOutWhenQueueFull(t *testing.T) {
	t.Parallel()

	// No worker running, capacity 1: the second enqueue must give up.
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), &capturingPublisher{}, 1, 20*time.Millisecond)

	if err := d.Enqueue(context.Background(), ports.MailIntent{Kind: ports.MailKindReset}); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := d.Enqueue(context.Background(), ports.MailIntent{Kind: ports.MailKindReset}); !errors.Is(err, ErrDispatchQueueFull) {
		t.Fatalf("expected ErrDispatchQueueFull, got %v", err)
	}
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), publisher, 8, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := d.Enqueue(context.Background(), ports.MailIntent{Kind: ports.MailKindReset}); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}

	// Cancelled before the first receive: everything is published by the
	// shutdown drain pass.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := len(publisher.intents()); got != 5 {
		t.Fatalf("expected 5 intents drained on shutdown, got %d", got)
	}
}

func TestDispatcherKeepsRunningAfterPublishFailure(t *testing.T) {
	t.Parallel()

	publisher := &flakyPublisher{failFirst: 1}
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), publisher, 8, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	_ = d.Enqueue(context.Background(), ports.MailIntent{Kind: ports.MailKindReset})
	_ = d.Enqueue(context.Background(), ports.MailIntent{Kind: ports.MailKindReset})

	deadline := time.After(2 * time.Second)
	for publisher.attemptCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 publish attempts, got %d", publisher.attemptCount())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done

	if publisher.successCount() != 1 {
		t.Fatalf("expected exactly one successful publish, got %d", publisher.successCount())
	}
}

type flakyPublisher struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	successes int
}

func (p *flakyPublisher) Publish(context.Context, ports.MailIntent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.attempts <= p.failFirst {
		return errors.New("broker unavailable")
	}
	p.successes++
	return nil
}

func (p *flakyPublisher) attemptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func (p *flakyPublisher) successCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.successes
}
