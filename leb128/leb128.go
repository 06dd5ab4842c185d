// Package leb128 implements the unsigned and signed LEB128 variable-length
// integer encodings used throughout the WebAssembly binary format.
// https://webassembly.github.io/spec/core/binary/values.html#integers
package leb128

import (
	"errors"

	"github.com/vertexdlt/wasmexec/util"
)

// ErrOverflow is returned when a LEB128 sequence encodes more bits than the
// requested width allows.
var ErrOverflow = errors.New("leb128: value overflows requested width")

// Read decodes a LEB128 integer of at most n bits from br. hasSign selects
// the signed variant, which sign-extends from bit 6 of the final group.
func Read(br *util.ByteReader, n uint, hasSign bool) (int64, error) {
	var (
		shift   uint
		result  int64
		cur     int64
		groups  uint
		maxGrp  = (n + 6) / 7
	)
	for {
		b, err := br.ReadOne()
		if err != nil {
			return 0, err
		}
		groups++
		if groups > maxGrp {
			return 0, ErrOverflow
		}
		cur = int64(b)
		result |= (cur & 0x7f) << shift
		shift += 7
		if cur&0x80 == 0 {
			if groups == maxGrp {
				// The last permitted group may only carry the bits left of
				// the n-bit width; anything above them overflows.
				used := n - 7*(maxGrp-1)
				payload := cur & 0x7f
				if hasSign {
					high := int64(0x7f) &^ (int64(1)<<(used-1) - 1)
					if payload&high != 0 && payload&high != high {
						return 0, ErrOverflow
					}
				} else if payload>>used != 0 {
					return 0, ErrOverflow
				}
			}
			if hasSign && shift < 64 && cur&0x40 != 0 {
				result |= -1 << shift
			}
			break
		}
	}
	return result, nil
}

// ReadUint32 decodes an unsigned 32-bit LEB128 integer.
func ReadUint32(br *util.ByteReader) (uint32, error) {
	v, err := Read(br, 32, false)
	return uint32(v), err
}

// ReadInt32 decodes a signed 32-bit LEB128 integer.
func ReadInt32(br *util.ByteReader) (int32, error) {
	v, err := Read(br, 32, true)
	return int32(v), err
}

// ReadUint64 decodes an unsigned 64-bit LEB128 integer.
func ReadUint64(br *util.ByteReader) (uint64, error) {
	v, err := Read(br, 64, false)
	return uint64(v), err
}

// ReadInt64 decodes a signed 64-bit LEB128 integer.
func ReadInt64(br *util.ByteReader) (int64, error) {
	return Read(br, 64, true)
}

// WriteUint64 encodes an unsigned LEB128 integer.
func WriteUint64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

// WriteUint32 encodes an unsigned 32-bit LEB128 integer.
func WriteUint32(v uint32) []byte {
	return WriteUint64(uint64(v))
}

// WriteInt64 encodes a signed LEB128 integer.
func WriteInt64(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// WriteInt32 encodes a signed 32-bit LEB128 integer.
func WriteInt32(v int32) []byte {
	return WriteInt64(int64(v))
}
