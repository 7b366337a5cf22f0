// Package p2p defines the transport abstraction both node actors depend on:
// a stream of inbound encoded transactions and a broadcast channel for
// outbound encoded events. Transport reliability, peer discovery, and wire
// framing below the byte-slice level are all out of scope; this package only
// names the operations the actor loop needs.
package p2p

import "context"

// Recipients selects which peers a Broadcaster sends to. The zero value,
// All, targets every connected peer -- the only recipient selection this
// system uses.
type Recipients int

const (
	// All broadcasts to every connected peer.
	All Recipients = iota
)

// Receiver supplies inbound encoded transactions from the network. Receive
// blocks until a message arrives or ctx is canceled.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Sender delivers a single encoded message to one peer.
type Sender interface {
	Send(ctx context.Context, peer string, payload []byte) error
}

// Broadcaster delivers an encoded message to a set of recipients.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients Recipients, payload []byte) error
}
