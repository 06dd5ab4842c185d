package leb128

import (
	"testing"

	"github.com/vertexdlt/wasmexec/util"
)

func TestReadUint32Literal(t *testing.T) {
	br := util.NewByteReader([]byte{0xE5, 0x8E, 0x26})
	v, err := ReadUint32(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 624485 {
		t.Errorf("expected 624485, got %d", v)
	}
}

func TestReadInt32Literal(t *testing.T) {
	br := util.NewByteReader([]byte{0xC0, 0xBB, 0x78})
	v, err := ReadInt32(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -123456 {
		t.Errorf("expected -123456, got %d", v)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	vals := []uint32{0, 1, 127, 128, 624485, 0x7fffffff, 0xffffffff}
	for _, v := range vals {
		br := util.NewByteReader(WriteUint32(v))
		got, err := ReadUint32(br)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: want %d, got %d", v, got)
		}
	}
}

func TestInt64RoundTrip(t *testing.T) {
	vals := []int64{0, -1, 1, -123456, 123456, -9223372036854775808, 9223372036854775807}
	for _, v := range vals {
		br := util.NewByteReader(WriteInt64(v))
		got, err := ReadInt64(br)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: want %d, got %d", v, got)
		}
	}
}

func TestUint64RoundTripBoundary(t *testing.T) {
	vals := []uint64{0, 1, 0xffffffffffffffff, 0x8000000000000000}
	for _, v := range vals {
		br := util.NewByteReader(WriteUint64(v))
		got, err := ReadUint64(br)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: want %d, got %d", v, got)
		}
	}
}

func TestReadOverflow(t *testing.T) {
	// ten groups of 7 bits (nine with continuation set) exceed the 32-bit
	// budget of five groups.
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	br := util.NewByteReader(data)
	if _, err := ReadUint32(br); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}
