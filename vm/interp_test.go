package vm

import (
	"errors"
	"testing"

	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/wasm"
)

func i32Type(params, results int) wasm.FuncType {
	ft := wasm.FuncType{}
	for i := 0; i < params; i++ {
		ft.Params = append(ft.Params, wasm.ValueTypeI32)
	}
	for i := 0; i < results; i++ {
		ft.Results = append(ft.Results, wasm.ValueTypeI32)
	}
	return ft
}

// exportedModule wraps a single local function of type ft, exported as
// "run", into a minimal otherwise-empty module.
func exportedModule(ft wasm.FuncType, locals []wasm.LocalEntry, body []wasm.Instr) *wasm.Module {
	return &wasm.Module{
		Types:        []wasm.FuncType{ft},
		FuncTypeIdxs: []uint32{0},
		Exports: []wasm.Export{
			{Name: "run", Desc: wasm.ExportDesc{Kind: wasm.ExternalFunction, Idx: 0}},
		},
		Codes: []wasm.Code{{Locals: locals, Body: body}},
	}
}

func mustInstantiate(t *testing.T, m *wasm.Module) *Instance {
	t.Helper()
	inst, err := Instantiate(m, nil)
	if err != nil {
		t.Fatalf("unexpected link error: %v", err)
	}
	return inst
}

func TestInvokeAdd(t *testing.T) {
	m := exportedModule(i32Type(2, 1), nil, []wasm.Instr{
		{Op: opcode.LocalGet, Idx: 0},
		{Op: opcode.LocalGet, Idx: 1},
		{Op: opcode.I32Add},
	})
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("run", I32(2), I32(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].I32() != 5 {
		t.Errorf("expected [5], got %v", results)
	}
}

func TestInvokeDivByZeroTraps(t *testing.T) {
	m := exportedModule(i32Type(0, 1), nil, []wasm.Instr{
		{Op: opcode.I32Const, I32: 1},
		{Op: opcode.I32Const, I32: 0},
		{Op: opcode.I32DivS},
	})
	inst := mustInstantiate(t, m)
	_, err := inst.Invoke("run")
	var trapErr *TrapError
	if !errors.As(err, &trapErr) {
		t.Fatalf("expected *TrapError, got %v", err)
	}
}

func TestInvokeUnreachableTraps(t *testing.T) {
	m := exportedModule(i32Type(0, 0), nil, []wasm.Instr{
		{Op: opcode.Unreachable},
	})
	inst := mustInstantiate(t, m)
	_, err := inst.Invoke("run")
	var trapErr *TrapError
	if !errors.As(err, &trapErr) {
		t.Fatalf("expected *TrapError, got %v", err)
	}
}

// TestLoopBranchTriangularSum computes sum(1..n) with a block+loop pair:
// br_if 1 breaks out to the enclosing block, br 0 restarts the loop.
func TestLoopBranchTriangularSum(t *testing.T) {
	loopBody := []wasm.Instr{
		{Op: opcode.LocalGet, Idx: 0},
		{Op: opcode.I32Eqz},
		{Op: opcode.BrIf, Idx: 1},
		{Op: opcode.LocalGet, Idx: 1},
		{Op: opcode.LocalGet, Idx: 0},
		{Op: opcode.I32Add},
		{Op: opcode.LocalSet, Idx: 1},
		{Op: opcode.LocalGet, Idx: 0},
		{Op: opcode.I32Const, I32: 1},
		{Op: opcode.I32Sub},
		{Op: opcode.LocalSet, Idx: 0},
		{Op: opcode.Br, Idx: 0},
	}
	body := []wasm.Instr{
		{Op: opcode.Block, Body: []wasm.Instr{
			{Op: opcode.Loop, Body: loopBody},
		}},
		{Op: opcode.LocalGet, Idx: 1},
	}
	m := exportedModule(i32Type(1, 1), []wasm.LocalEntry{{Count: 1, Type: wasm.ValueTypeI32}}, body)
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("run", I32(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 15 {
		t.Errorf("expected sum(1..5) == 15, got %d", results[0].I32())
	}
}

func TestInvokeIfElse(t *testing.T) {
	m := exportedModule(i32Type(1, 1), nil, []wasm.Instr{
		{Op: opcode.LocalGet, Idx: 0},
		{
			Op:        opcode.If,
			HasResult: true,
			Result:    wasm.ValueTypeI32,
			Body:      []wasm.Instr{{Op: opcode.I32Const, I32: 1}},
			Else:      []wasm.Instr{{Op: opcode.I32Const, I32: 0}},
		},
	})
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("run", I32(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 1 {
		t.Errorf("expected 1 for truthy condition, got %d", results[0].I32())
	}
	results, err = inst.Invoke("run", I32(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 0 {
		t.Errorf("expected 0 for falsy condition, got %d", results[0].I32())
	}
}

func TestFloatArithmeticAndConversion(t *testing.T) {
	ft := wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeF64}}
	m := exportedModule(ft, nil, []wasm.Instr{
		{Op: opcode.I32Const, I32: 7},
		{Op: opcode.F64ConvertI32S},
		{Op: opcode.F64Const, F64: 0.5},
		{Op: opcode.F64Add},
	})
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].F64() != 7.5 {
		t.Errorf("expected 7.5, got %v", results[0].F64())
	}
}

func TestGasLimitExhausted(t *testing.T) {
	m := exportedModule(i32Type(2, 1), nil, []wasm.Instr{
		{Op: opcode.LocalGet, Idx: 0},
		{Op: opcode.LocalGet, Idx: 1},
		{Op: opcode.I32Add},
	})
	inst := mustInstantiate(t, m)
	inst.SetGasPolicy(SimpleGasPolicy{}, 1)
	_, err := inst.Invoke("run", I32(1), I32(2))
	if !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("expected ErrOutOfGas, got %v", err)
	}
}

func TestImmutableGlobalWriteTraps(t *testing.T) {
	m := &wasm.Module{
		Types:        []wasm.FuncType{i32Type(0, 0)},
		FuncTypeIdxs: []uint32{0},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: false}, Init: []wasm.Instr{{Op: opcode.I32Const, I32: 1}}},
		},
		Exports: []wasm.Export{{Name: "run", Desc: wasm.ExportDesc{Kind: wasm.ExternalFunction, Idx: 0}}},
		Codes: []wasm.Code{{Body: []wasm.Instr{
			{Op: opcode.I32Const, I32: 2},
			{Op: opcode.GlobalSet, Idx: 0},
		}}},
	}
	inst := mustInstantiate(t, m)
	_, err := inst.Invoke("run")
	var trapErr *TrapError
	if !errors.As(err, &trapErr) {
		t.Fatalf("expected *TrapError writing an immutable global, got %v", err)
	}
}
