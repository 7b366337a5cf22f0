// Package actorloop implements the thin, role-agnostic cooperative
// scheduling primitive both node actors embed: select over one inbound
// message at a time and a periodic tick, until the context is canceled.
package actorloop

import (
	"context"
	"time"
)

// Loop drives a receive/tick select loop until ctx is canceled. OnReceive is
// invoked with each value read from Receive; OnTick fires every period.
// Receive should itself honor ctx cancellation (returning a non-nil error)
// so the loop can unblock promptly.
type Loop struct {
	Period    time.Duration
	Receive   func(ctx context.Context) (any, error)
	OnReceive func(ctx context.Context, msg any)
	OnTick    func(ctx context.Context)
}

// Run blocks until ctx is canceled and then returns ctx.Err(). An error
// from Receive while ctx is still live is treated as transient: the loop
// keeps running and calls Receive again.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()

	type recvResult struct {
		msg any
		err error
	}
	recvCh := make(chan recvResult, 1)
	startRecv := func() {
		go func() {
			msg, err := l.Receive(ctx)
			recvCh <- recvResult{msg: msg, err: err}
		}()
	}
	startRecv()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-ticker.C:
			_ = tick
			l.OnTick(ctx)
		case res := <-recvCh:
			if res.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Transient receive error: keep the loop alive and try
				// again on the next message.
				startRecv()
				continue
			}
			l.OnReceive(ctx, res.msg)
			startRecv()
		}
	}
}
