package p2p

import (
	"context"
	"sync"
)

// MemoryNetwork is an in-process fake transport connecting any number of
// MemoryTransport peers by name. It exists for single-process tests and
// demos; it is not a substitute for a wire-level transport.
type MemoryNetwork struct {
	mu    sync.Mutex
	peers map[string]chan []byte
}

// NewMemoryNetwork returns an empty network.
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{peers: make(map[string]chan []byte)}
}

// Join registers name on the network and returns a transport bound to it.
// The returned transport's inbox has a small buffer so a slow receiver
// doesn't stall a broadcasting peer within a single test.
func (n *MemoryNetwork) Join(name string) *MemoryTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	inbox := make(chan []byte, 256)
	n.peers[name] = inbox
	return &MemoryTransport{network: n, self: name, inbox: inbox}
}

func (n *MemoryNetwork) deliver(ctx context.Context, payload []byte, exclude string) error {
	n.mu.Lock()
	targets := make([]chan []byte, 0, len(n.peers))
	for name, inbox := range n.peers {
		if name == exclude {
			continue
		}
		targets = append(targets, inbox)
	}
	n.mu.Unlock()

	for _, inbox := range targets {
		select {
		case inbox <- payload:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// MemoryTransport implements Receiver, Sender, and Broadcaster against a
// MemoryNetwork.
type MemoryTransport struct {
	network *MemoryNetwork
	self    string
	inbox   chan []byte
}

func (t *MemoryTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-t.inbox:
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *MemoryTransport) Send(ctx context.Context, peer string, payload []byte) error {
	t.network.mu.Lock()
	inbox, ok := t.network.peers[peer]
	t.network.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case inbox <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *MemoryTransport) Broadcast(ctx context.Context, _ Recipients, payload []byte) error {
	return t.network.deliver(ctx, payload, t.self)
}
