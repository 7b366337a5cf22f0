package codec

import (
	"errors"
	"testing"

	"github.com/breadchain/breadchain/internal/digest"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<64 - 1}
	for _, v := range cases {
		var w Writer
		w.WriteVarint(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarint()
		if err != nil {
			t.Fatalf("value %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("want %d, got %d", v, got)
		}
		if r.Remaining() != 0 {
			t.Fatalf("value %d: %d bytes left over", v, r.Remaining())
		}
	}
}

func TestVarintSingleByteForSmallValues(t *testing.T) {
	var w Writer
	w.WriteVarint(5)
	if len(w.Bytes()) != 1 {
		t.Fatalf("want 1 byte, got %d", len(w.Bytes()))
	}
}

func TestUint64RoundTrip(t *testing.T) {
	var w Writer
	w.WriteUint64(0x0102030405060708)
	r := NewReader(w.Bytes())
	got, err := r.ReadUint64()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x0102030405060708 {
		t.Fatalf("want 0x0102030405060708, got %#x", got)
	}
	if w.Bytes()[0] != 0x01 {
		t.Fatalf("expected big-endian encoding, first byte was %#x", w.Bytes()[0])
	}
}

func TestDigestRoundTrip(t *testing.T) {
	d := digest.Sum([]byte("hello"))
	var w Writer
	w.WriteDigest(d)
	r := NewReader(w.Bytes())
	got, err := r.ReadDigest()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != d {
		t.Fatalf("want %s, got %s", d, got)
	}
}

func TestReadPastEndReturnsError(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint64(); err == nil {
		t.Fatalf("expected error reading past end")
	}
}

func TestInvalidEnumError(t *testing.T) {
	err := &ErrInvalidEnum{Tag: 0xfe}
	var target *ErrInvalidEnum
	if !errors.As(err, &target) {
		t.Fatalf("want ErrInvalidEnum")
	}
	if target.Tag != 0xfe {
		t.Fatalf("want tag 0xfe, got %#x", target.Tag)
	}
}
