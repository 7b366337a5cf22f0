package actorloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunDeliversReceivedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan any, 4)
	msgs <- "one"
	msgs <- "two"

	var received []any
	done := make(chan struct{})

	loop := &Loop{
		Period: time.Hour,
		Receive: func(ctx context.Context) (any, error) {
			select {
			case m := <-msgs:
				return m, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		OnReceive: func(_ context.Context, msg any) {
			received = append(received, msg)
			if len(received) == 2 {
				close(done)
			}
		},
		OnTick: func(context.Context) {},
	}

	go loop.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for both messages")
	}
	cancel()

	if len(received) != 2 || received[0] != "one" || received[1] != "two" {
		t.Fatalf("want [one two], got %v", received)
	}
}

func TestRunFiresOnTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks int64
	block := make(chan struct{})

	loop := &Loop{
		Period: 10 * time.Millisecond,
		Receive: func(ctx context.Context) (any, error) {
			<-block
			return nil, errors.New("unreachable")
		},
		OnReceive: func(context.Context, any) {},
		OnTick: func(context.Context) {
			atomic.AddInt64(&ticks, 1)
		},
	}

	go loop.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(block)

	if atomic.LoadInt64(&ticks) == 0 {
		t.Fatalf("expected at least one tick to have fired")
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	loop := &Loop{
		Period: time.Hour,
		Receive: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		OnReceive: func(context.Context, any) {},
		OnTick:    func(context.Context) {},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit after cancellation")
	}
}
