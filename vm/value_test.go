package vm

import (
	"testing"

	"github.com/vertexdlt/wasmexec/wasm"
)

func TestValueRoundTrip(t *testing.T) {
	if I32(-1).I32() != -1 {
		t.Errorf("expected I32(-1).I32() == -1")
	}
	if I64(-1).I64() != -1 {
		t.Errorf("expected I64(-1).I64() == -1")
	}
	if F32(1.5).F32() != 1.5 {
		t.Errorf("expected F32(1.5).F32() == 1.5")
	}
	if F64(2.25).F64() != 2.25 {
		t.Errorf("expected F64(2.25).F64() == 2.25")
	}
}

func TestZero(t *testing.T) {
	z := Zero(wasm.ValueTypeI32)
	if z.I32() != 0 {
		t.Errorf("expected zero value to be 0")
	}
}
