package number

import (
	"math"
	"testing"
)

func TestWrapI64(t *testing.T) {
	got := WrapI64(0x1_0000_0001)
	if got != 1 {
		t.Errorf("expected wrap to keep low 32 bits, got %#x", got)
	}
}

func TestExtendI32SignExtends(t *testing.T) {
	got := ExtendI32S(uint64(uint32(0xFFFFFFFF)))
	if int64(got) != -1 {
		t.Errorf("expected sign-extended -1, got %d", int64(got))
	}
	got = ExtendI32U(uint64(uint32(0xFFFFFFFF)))
	if got != 0xFFFFFFFF {
		t.Errorf("expected zero-extended 0xFFFFFFFF, got %#x", got)
	}
}

func TestTruncOverflow(t *testing.T) {
	// i32.trunc_f64_s(1e30) cannot fit in an i32.
	_, err := Trunc(64, 32, true, math.Float64bits(1e30))
	if err != ErrTruncOverflow {
		t.Errorf("expected ErrTruncOverflow, got %v", err)
	}
}

func TestTruncInvalidOnNaN(t *testing.T) {
	_, err := Trunc(64, 32, true, math.Float64bits(math.NaN()))
	if err != ErrInvalidConversion {
		t.Errorf("expected ErrInvalidConversion, got %v", err)
	}
}

func TestTruncRoundTrip(t *testing.T) {
	got, err := Trunc(64, 32, true, math.Float64bits(-42.9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int32(uint32(got)) != -42 {
		t.Errorf("expected truncation toward zero to give -42, got %d", int32(uint32(got)))
	}
}

func TestConvertSignedUnsigned(t *testing.T) {
	got := Convert(32, 64, true, uint64(uint32(0xFFFFFFFF)))
	if math.Float64frombits(got) != -1 {
		t.Errorf("expected convert_i32_s(-1) == -1.0, got %v", math.Float64frombits(got))
	}
	got = Convert(32, 64, false, uint64(uint32(0xFFFFFFFF)))
	if math.Float64frombits(got) != 4294967295 {
		t.Errorf("expected convert_i32_u(0xFFFFFFFF) == 4294967295.0, got %v", math.Float64frombits(got))
	}
}

func TestDemotePromoteRoundTrip(t *testing.T) {
	original := float32(1.5)
	promoted := PromoteF32(uint64(math.Float32bits(original)))
	demoted := DemoteF64(promoted)
	if math.Float32frombits(uint32(demoted)) != original {
		t.Errorf("expected exact round trip through promote/demote for %v", original)
	}
}
