package vm

import (
	"errors"
	"testing"

	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/wasm"
)

// answerCallIndirectModule builds a two-function module: function 0 (type 0,
// no params, one i32 result) returns 42, function 1 calls whatever function
// the table's single slot names via call_indirect, checking against
// checkTypeIdx.
func answerCallIndirectModule(checkTypeIdx uint32) *wasm.Module {
	return &wasm.Module{
		Types:        []wasm.FuncType{i32Type(0, 1), i32Type(1, 1)},
		FuncTypeIdxs: []uint32{0, 0},
		Tables:       []wasm.TableType{{ElemType: wasm.ElemTypeFuncRef, Limits: wasm.Limits{Min: 1, Max: 1, HasMax: true}}},
		Elements: []wasm.Element{
			{TableIdx: 0, Offset: []wasm.Instr{{Op: opcode.I32Const, I32: 0}}, FuncIdxs: []uint32{0}},
		},
		Exports: []wasm.Export{
			{Name: "call_it", Desc: wasm.ExportDesc{Kind: wasm.ExternalFunction, Idx: 1}},
		},
		Codes: []wasm.Code{
			{Body: []wasm.Instr{{Op: opcode.I32Const, I32: 42}}},
			{Body: []wasm.Instr{
				{Op: opcode.I32Const, I32: 0},
				{Op: opcode.CallIndirect, Idx: checkTypeIdx},
			}},
		},
	}
}

func TestCallIndirectSucceeds(t *testing.T) {
	m := answerCallIndirectModule(0)
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("call_it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 42 {
		t.Errorf("expected 42, got %d", results[0].I32())
	}
}

func TestCallIndirectSignatureMismatchTraps(t *testing.T) {
	// Type 1 (one param) does not match the table's installed function,
	// whose real signature is type 0 (no params).
	m := answerCallIndirectModule(1)
	inst := mustInstantiate(t, m)
	_, err := inst.Invoke("call_it")
	var trapErr *TrapError
	if !errors.As(err, &trapErr) {
		t.Fatalf("expected *TrapError on signature mismatch, got %v", err)
	}
}

func TestDirectCall(t *testing.T) {
	m := &wasm.Module{
		Types:        []wasm.FuncType{i32Type(0, 1), i32Type(1, 1)},
		FuncTypeIdxs: []uint32{0, 1},
		Exports: []wasm.Export{
			{Name: "run", Desc: wasm.ExportDesc{Kind: wasm.ExternalFunction, Idx: 1}},
		},
		Codes: []wasm.Code{
			{Body: []wasm.Instr{{Op: opcode.I32Const, I32: 10}}},
			{Body: []wasm.Instr{
				{Op: opcode.Call, Idx: 0},
				{Op: opcode.LocalGet, Idx: 0},
				{Op: opcode.I32Add},
			}},
		},
	}
	inst := mustInstantiate(t, m)
	results, err := inst.Invoke("run", I32(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 15 {
		t.Errorf("expected 15, got %d", results[0].I32())
	}
}

func TestHostFunctionImport(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{i32Type(2, 1)},
		Imports: []wasm.Import{
			{Module: "env", Name: "add", Desc: wasm.ImportDesc{Kind: wasm.ExternalFunction, TypeIdx: 0}},
		},
		Exports: []wasm.Export{
			{Name: "run", Desc: wasm.ExportDesc{Kind: wasm.ExternalFunction, Idx: 0}},
		},
	}
	called := false
	host := HostFunction(func(store *Store, module *ModuleInstance, locals []Value, args []Value) (*Value, error) {
		called = true
		r := I32(args[0].I32() + args[1].I32())
		return &r, nil
	})
	inst, err := Instantiate(m, Imports{"env": {"add": host}})
	if err != nil {
		t.Fatalf("unexpected link error: %v", err)
	}
	results, err := inst.Invoke("run", I32(4), I32(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected host function to be called")
	}
	if results[0].I32() != 10 {
		t.Errorf("expected 10, got %d", results[0].I32())
	}
}
