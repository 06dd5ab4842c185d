// Package vm links a decoded wasm.Module against a host import object,
// instantiates it into a runtime store, and interprets its exported
// functions. It is the execution engine: package wasm only describes a
// module's shape, and never mutates or evaluates anything.
package vm

import (
	"fmt"
	"math"

	"github.com/vertexdlt/wasmexec/wasm"
)

// Value is a runtime value: a (kind, bits, scalar) triple per the data
// model. Integers are held as their unsigned bit pattern; floats as the
// native IEEE-754 bits of the requested width. Signedness is never stored
// here — it is supplied by the operation that consumes the value.
type Value struct {
	Type wasm.ValueType
	bits uint64
}

// I32 constructs an i32 value from a signed Go int32.
func I32(v int32) Value { return Value{wasm.ValueTypeI32, uint64(uint32(v))} }

// I64 constructs an i64 value from a signed Go int64.
func I64(v int64) Value { return Value{wasm.ValueTypeI64, uint64(v)} }

// F32 constructs an f32 value.
func F32(v float32) Value { return Value{wasm.ValueTypeF32, uint64(math.Float32bits(v))} }

// F64 constructs an f64 value.
func F64(v float64) Value { return Value{wasm.ValueTypeF64, math.Float64bits(v)} }

// F32FromBits constructs an f32 value from a raw 32-bit pattern, preserving
// NaN payloads exactly (unlike F32(math.Float32frombits(b)), which would
// round-trip through a Go float32 but loses no bits either — kept distinct
// for callers that already hold bits, e.g. reinterpret and load/store).
func F32FromBits(bits uint64) Value { return Value{wasm.ValueTypeF32, bits & 0xFFFFFFFF} }

// F64FromBits constructs an f64 value from a raw 64-bit pattern.
func F64FromBits(bits uint64) Value { return Value{wasm.ValueTypeF64, bits} }

// intValue tags a raw width-bit integer pattern with the matching value
// type; used by opcodes whose destination width is picked at dispatch time
// (truncation, wrap, extend).
func intValue(bits int, raw uint64) Value {
	if bits == 32 {
		return Value{wasm.ValueTypeI32, raw & 0xFFFFFFFF}
	}
	return Value{wasm.ValueTypeI64, raw}
}

// Zero returns the zero value of t, used to initialize declared locals.
func Zero(t wasm.ValueType) Value {
	return Value{Type: t, bits: 0}
}

// Bits returns the raw bit pattern, width-appropriate, zero-extended to 64.
func (v Value) Bits() uint64 { return v.bits }

// I32 interprets the low 32 bits as a signed integer.
func (v Value) I32() int32 { return int32(uint32(v.bits)) }

// I64 interprets the value as a signed 64-bit integer.
func (v Value) I64() int64 { return int64(v.bits) }

// F32 interprets the low 32 bits as an IEEE-754 single.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.bits)) }

// F64 interprets the value as an IEEE-754 double.
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

func (v Value) String() string {
	switch v.Type {
	case wasm.ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case wasm.ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case wasm.ValueTypeF32:
		return fmt.Sprintf("f32:%v", v.F32())
	case wasm.ValueTypeF64:
		return fmt.Sprintf("f64:%v", v.F64())
	default:
		return "invalid"
	}
}
