package number

import (
	"math"
	"testing"
)

func f32bits(v float32) uint64 { return uint64(math.Float32bits(v)) }
func f64bits(v float64) uint64 { return math.Float64bits(v) }

func TestFloatBinaryMinMaxNaN(t *testing.T) {
	nan := f64bits(math.NaN())
	got := FloatBinary(64, FMin, nan, f64bits(1))
	if !math.IsNaN(math.Float64frombits(got)) {
		t.Errorf("expected NaN propagation from min, got %v", math.Float64frombits(got))
	}
}

func TestFloatBinaryMinSignedZero(t *testing.T) {
	got := FloatBinary(64, FMin, f64bits(0), f64bits(math.Copysign(0, -1)))
	if !math.Signbit(math.Float64frombits(got)) {
		t.Errorf("expected min(0, -0) == -0")
	}
}

func TestFloatBinaryCopysign(t *testing.T) {
	got := FloatBinary(32, FCopysign, f32bits(3), f32bits(-1))
	want := float32(-3)
	if math.Float32frombits(uint32(got)) != want {
		t.Errorf("expected copysign(3, -1) == -3, got %v", math.Float32frombits(uint32(got)))
	}
}

func TestFloatUnaryNearestRoundsToEven(t *testing.T) {
	got := FloatUnary(64, FNearest, f64bits(2.5))
	if math.Float64frombits(got) != 2 {
		t.Errorf("expected nearest(2.5) == 2 (ties to even), got %v", math.Float64frombits(got))
	}
	got = FloatUnary(64, FNearest, f64bits(3.5))
	if math.Float64frombits(got) != 4 {
		t.Errorf("expected nearest(3.5) == 4 (ties to even), got %v", math.Float64frombits(got))
	}
}

func TestFloatUnarySqrtNegativeZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	got := FloatUnary(64, FSqrt, f64bits(negZero))
	r := math.Float64frombits(got)
	if r != 0 || !math.Signbit(r) {
		t.Errorf("expected sqrt(-0) == -0, got %v", r)
	}
}

func TestFloatRelNaNComparisonsAreFalse(t *testing.T) {
	nan := f64bits(math.NaN())
	if FloatRel(64, FEq, nan, nan) != 0 {
		t.Errorf("expected NaN == NaN to be false")
	}
	if FloatRel(64, FNe, nan, nan) != 1 {
		t.Errorf("expected NaN != NaN to be true")
	}
	if FloatRel(64, FLt, nan, f64bits(0)) != 0 {
		t.Errorf("expected NaN < 0 to be false")
	}
}
