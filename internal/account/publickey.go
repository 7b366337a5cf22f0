// Package account defines the originator identity shared by every
// transaction type in the system. Signature verification itself is assumed
// to be performed upstream, before a transaction reaches this system, so
// this package only carries the wire-sized key value, not any cryptographic
// capability.
package account

import "encoding/hex"

// PublicKeyLength is the size in bytes of an Ed25519 public key.
const PublicKeyLength = 32

// SignatureLength is the size in bytes of an Ed25519 signature.
const SignatureLength = 64

// PublicKey identifies a transaction originator. It is comparable, so it
// can be used directly as a map key.
type PublicKey [PublicKeyLength]byte

// Bytes returns the byte slice representation of the key.
func (p PublicKey) Bytes() []byte { return p[:] }

// Hex returns the 0x-prefixed hex representation of the key.
func (p PublicKey) Hex() string { return "0x" + hex.EncodeToString(p[:]) }

// String implements fmt.Stringer.
func (p PublicKey) String() string { return p.Hex() }

// BytesToPublicKey copies b into a PublicKey, left-padding with zeros if b
// is shorter than PublicKeyLength and truncating from the left if longer.
func BytesToPublicKey(b []byte) PublicKey {
	var p PublicKey
	if len(b) > PublicKeyLength {
		b = b[len(b)-PublicKeyLength:]
	}
	copy(p[PublicKeyLength-len(b):], b)
	return p
}

// Signature is an Ed25519 signature carried on the wire but never verified
// by this package; upstream callers are responsible for verification before
// a transaction reaches the mempool.
type Signature [SignatureLength]byte

// Bytes returns the byte slice representation of the signature.
func (s Signature) Bytes() []byte { return s[:] }
