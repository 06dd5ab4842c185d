package number

import (
	"errors"
	"math"
)

// ErrInvalidConversion is returned by a truncating float-to-integer
// conversion whose source is NaN.
var ErrInvalidConversion = errors.New("number: invalid conversion to integer")

// ErrTruncOverflow is returned by a truncating float-to-integer conversion
// whose source magnitude does not fit the destination width/signedness.
var ErrTruncOverflow = errors.New("number: integer overflow during truncation")

// WrapI64 implements i32.wrap_i64: keep the low 32 bits.
func WrapI64(a uint64) uint64 {
	return a & mask(32)
}

// ExtendI32S implements i64.extend_i32_s: sign-extend the low 32 bits to 64.
func ExtendI32S(a uint64) uint64 {
	return uint64(int64(int32(uint32(a))))
}

// ExtendI32U implements i64.extend_i32_u: zero-extend the low 32 bits to 64.
func ExtendI32U(a uint64) uint64 {
	return uint64(uint32(a))
}

// truncBounds gives the representable range of each destination int type
// as float64, used to bounds-check a truncating conversion before it is
// performed in the narrower, possibly lossy destination type.
func truncBounds(toBits int, signed bool) (lo, hi float64) {
	switch {
	case toBits == 32 && signed:
		return math.MinInt32, math.MaxInt32 + 1
	case toBits == 32 && !signed:
		return -1, math.MaxUint32 + 1
	case toBits == 64 && signed:
		// float64 cannot exactly represent MaxInt64; 2^63 is the tightest
		// exclusive upper bound that still rejects true overflow.
		return -9223372036854775808.0, 9223372036854775808.0
	default: // 64-bit unsigned
		return -1, 18446744073709551616.0
	}
}

// Trunc implements iNN.trunc_fMM_{s,u}: truncate toward zero, trapping on
// NaN (ErrInvalidConversion) or on an infinity or a magnitude the
// destination cannot represent (ErrTruncOverflow).
func Trunc(fromBits, toBits int, signed bool, a uint64) (uint64, error) {
	var f float64
	if fromBits == 32 {
		x := math.Float32frombits(uint32(a))
		if math.IsNaN(float64(x)) {
			return 0, ErrInvalidConversion
		}
		if math.IsInf(float64(x), 0) {
			return 0, ErrTruncOverflow
		}
		f = math.Trunc(float64(x))
	} else {
		x := math.Float64frombits(a)
		if math.IsNaN(x) {
			return 0, ErrInvalidConversion
		}
		if math.IsInf(x, 0) {
			return 0, ErrTruncOverflow
		}
		f = math.Trunc(x)
	}
	lo, hi := truncBounds(toBits, signed)
	if f < lo || f >= hi {
		return 0, ErrTruncOverflow
	}
	if toBits == 32 {
		if signed {
			return uint64(uint32(int32(f))), nil
		}
		return uint64(uint32(f)), nil
	}
	if signed {
		return uint64(int64(f)), nil
	}
	return uint64(f), nil
}

// Convert implements fNN.convert_iMM_{s,u}: interpret a as a signed or
// unsigned fromBits-wide integer and round it to the nearest toBits-wide
// float.
func Convert(fromBits, toBits int, signed bool, a uint64) uint64 {
	a &= mask(fromBits)
	var f float64
	if signed {
		f = float64(toSigned(fromBits, a))
	} else {
		f = float64(a)
	}
	if toBits == 32 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}

// DemoteF64 implements f32.demote_f64: round a double to the nearest
// single, per IEEE-754 round-to-nearest-ties-to-even.
func DemoteF64(a uint64) uint64 {
	x := math.Float64frombits(a)
	return uint64(math.Float32bits(float32(x)))
}

// PromoteF32 implements f64.promote_f32: widen a single to a double
// exactly; every f32 value has an exact f64 representation.
func PromoteF32(a uint64) uint64 {
	x := math.Float32frombits(uint32(a))
	return math.Float64bits(float64(x))
}
