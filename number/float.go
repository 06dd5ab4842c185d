package number

import (
	"math"

	"github.com/chewxy/math32"
)

// FloatBinOp identifies a floating-point binary operator.
type FloatBinOp uint8

// Floating-point binary operators.
const (
	FAdd FloatBinOp = iota
	FSub
	FMul
	FDiv
	FMin
	FMax
	FCopysign
)

// FloatBinary applies op to the IEEE-754 bit patterns a and b at the given
// width (32 or 64), per round-to-nearest-ties-to-even. min/max propagate
// NaN; copysign takes the magnitude of a and the sign of b.
func FloatBinary(bits int, op FloatBinOp, a, b uint64) uint64 {
	if bits == 32 {
		x, y := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
		var r float32
		switch op {
		case FAdd:
			r = x + y
		case FSub:
			r = x - y
		case FMul:
			r = x * y
		case FDiv:
			r = x / y
		case FMin:
			r = fMin32(x, y)
		case FMax:
			r = fMax32(x, y)
		case FCopysign:
			r = math32.Copysign(x, y)
		default:
			panic("number: unknown FloatBinOp")
		}
		return uint64(math.Float32bits(r))
	}
	x, y := math.Float64frombits(a), math.Float64frombits(b)
	var r float64
	switch op {
	case FAdd:
		r = x + y
	case FSub:
		r = x - y
	case FMul:
		r = x * y
	case FDiv:
		r = x / y
	case FMin:
		r = fMin64(x, y)
	case FMax:
		r = fMax64(x, y)
	case FCopysign:
		r = math.Copysign(x, y)
	default:
		panic("number: unknown FloatBinOp")
	}
	return math.Float64bits(r)
}

func fMin32(x, y float32) float32 {
	if math32.IsNaN(x) || math32.IsNaN(y) {
		return math32.NaN()
	}
	if x == 0 && y == 0 {
		if math32.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

func fMax32(x, y float32) float32 {
	if math32.IsNaN(x) || math32.IsNaN(y) {
		return math32.NaN()
	}
	if x == 0 && y == 0 {
		if !math32.Signbit(x) {
			return x
		}
		return y
	}
	if x > y {
		return x
	}
	return y
}

func fMin64(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == 0 && y == 0 {
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

func fMax64(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == 0 && y == 0 {
		if !math.Signbit(x) {
			return x
		}
		return y
	}
	if x > y {
		return x
	}
	return y
}

// FloatUnOp identifies a floating-point unary operator.
type FloatUnOp uint8

// Floating-point unary operators.
const (
	FAbs FloatUnOp = iota
	FNeg
	FCeil
	FFloor
	FTrunc
	FNearest
	FSqrt
)

// FloatUnary applies op to the IEEE-754 bit pattern a at the given width.
// FNearest rounds to the nearest integer, ties to even, which differs from
// the C round() semantics of rounding ties away from zero. FSqrt of -0 is
// -0, per IEEE-754 and the WebAssembly spec.
func FloatUnary(bits int, op FloatUnOp, a uint64) uint64 {
	if bits == 32 {
		x := math.Float32frombits(uint32(a))
		var r float32
		switch op {
		case FAbs:
			r = math32.Abs(x)
		case FNeg:
			r = -x
		case FCeil:
			r = math32.Ceil(x)
		case FFloor:
			r = math32.Floor(x)
		case FTrunc:
			r = math32.Trunc(x)
		case FNearest:
			r = float32(math.RoundToEven(float64(x)))
		case FSqrt:
			r = math32.Sqrt(x)
		default:
			panic("number: unknown FloatUnOp")
		}
		return uint64(math.Float32bits(r))
	}
	x := math.Float64frombits(a)
	var r float64
	switch op {
	case FAbs:
		r = math.Abs(x)
	case FNeg:
		r = -x
	case FCeil:
		r = math.Ceil(x)
	case FFloor:
		r = math.Floor(x)
	case FTrunc:
		r = math.Trunc(x)
	case FNearest:
		r = math.RoundToEven(x)
	case FSqrt:
		r = math.Sqrt(x)
	default:
		panic("number: unknown FloatUnOp")
	}
	return math.Float64bits(r)
}

// FloatRelOp identifies a floating-point comparison operator.
type FloatRelOp uint8

// Floating-point comparison operators. Every comparison involving NaN is
// false except FNe, which is true (NaN != NaN).
const (
	FEq FloatRelOp = iota
	FNe
	FLt
	FGt
	FLe
	FGe
)

// FloatRel compares the IEEE-754 bit patterns a and b and returns the
// WebAssembly boolean result (i32 0 or 1).
func FloatRel(bits int, op FloatRelOp, a, b uint64) uint32 {
	var res bool
	if bits == 32 {
		x, y := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
		switch op {
		case FEq:
			res = x == y
		case FNe:
			res = x != y
		case FLt:
			res = x < y
		case FGt:
			res = x > y
		case FLe:
			res = x <= y
		case FGe:
			res = x >= y
		}
	} else {
		x, y := math.Float64frombits(a), math.Float64frombits(b)
		switch op {
		case FEq:
			res = x == y
		case FNe:
			res = x != y
		case FLt:
			res = x < y
		case FGt:
			res = x > y
		case FLe:
			res = x <= y
		case FGe:
			res = x >= y
		}
	}
	if res {
		return 1
	}
	return 0
}
