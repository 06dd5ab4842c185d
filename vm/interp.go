package vm

import (
	"encoding/binary"

	"github.com/vertexdlt/wasmexec/number"
	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/wasm"
)

// maxCallDepth bounds recursive local-function calls. The interpreter walks
// the decoder's instruction tree directly (recursion mirrors nesting one
// for one, per §9's module↔store address-indirection note applied to
// control flow too), so a call nest this deep would exhaust the host stack
// before it exhausted a real guest's budget; this fails first with
// ErrCallStackExhausted, as a
// deliberate, generous stand-in for the "explicit label-frame stack" the
// design notes describe.
const maxCallDepth = 1 << 16

// maxBlockDepth bounds block/loop/if nesting within a single function body.
// Control flow walks the decoder's Instr tree via Go recursion instead of an
// explicit label stack (DESIGN.md, SPEC_FULL.md §4.5/§9), so unchecked
// nesting would overflow the host goroutine's stack rather than trap — the
// decoder enforces this same bound at decode time (wasm.decodeInstrs), and
// this is the defense-in-depth copy for a hand-built *wasm.Module that
// bypassed decoding.
const maxBlockDepth = 1 << 12

// execCtx is the state shared by every frame within one top-level Invoke:
// the store entities resolve against, the call-depth counter, and the
// optional gas meter.
type execCtx struct {
	store *Store
	gas   *GasMeter
	depth int
}

// callFunc invokes fi with args and returns its declared results. It is the
// single call boundary used by Invoke, by `call`/`call_indirect`, and by
// the start function.
func callFunc(ec *execCtx, fi *FuncInstance, args []Value) ([]Value, error) {
	if fi.IsHost() {
		ret, err := fi.Host(ec.store, fi.Module, nil, args)
		if err != nil {
			return nil, err
		}
		return reconcileHostResult(fi, ret)
	}

	if ec.depth >= maxCallDepth {
		return nil, ErrCallStackExhausted
	}

	locals := make([]Value, fi.numLocals())
	copy(locals, args)
	idx := len(fi.Type.Params)
	for _, e := range fi.Locals {
		z := Zero(e.Type)
		for c := uint32(0); c < e.Count; c++ {
			locals[idx] = z
			idx++
		}
	}

	fr := &frame{module: fi.Module, locals: locals, ec: ec}
	ec.depth++
	sig, err := fr.execList(fi.Code)
	ec.depth--
	if err != nil {
		return nil, err
	}
	_ = sig // ctrlReturn and ctrlNone both leave results on top of fr.stack

	nres := len(fi.Type.Results)
	if len(fr.stack) < nres {
		return nil, trap(0, nil, "function fell through with too few values on the stack")
	}
	return append([]Value(nil), fr.stack[len(fr.stack)-nres:]...), nil
}

func reconcileHostResult(fi *FuncInstance, ret *Value) ([]Value, error) {
	if len(fi.Type.Results) == 0 {
		if ret != nil {
			return nil, linkErr("host function %s returned a value for a void signature", fi.ImportName)
		}
		return nil, nil
	}
	if ret == nil {
		return nil, linkErr("host function %s returned no value for signature %v", fi.ImportName, fi.Type.Results)
	}
	return []Value{*ret}, nil
}

// ctrlKind is the non-local control signal an instruction list can produce,
// bubbled up through execBlock/execList in place of an explicit label
// stack: the frame's single flat operand stack already holds everything a
// label entry would otherwise save, so unwinding is just "keep propagating
// until the targeted block handles it".
type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlBranch
	ctrlReturn
)

type ctrlSignal struct {
	kind  ctrlKind
	depth int // remaining label levels to unwind, for ctrlBranch
}

var sigNone = ctrlSignal{kind: ctrlNone}

// frame holds one function invocation's interpreter state: its locals
// mapping, a flat operand stack shared across all of its nested blocks, and
// a back-reference to the shared execution context.
type frame struct {
	module     *ModuleInstance
	locals     []Value
	stack      []Value
	ec         *execCtx
	blockDepth int
}

func (f *frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) peek() Value { return f.stack[len(f.stack)-1] }

// execList runs instrs in sequence against f, returning as soon as a
// non-local control signal (branch/return) or a trap short-circuits it.
func (f *frame) execList(instrs []wasm.Instr) (ctrlSignal, error) {
	for i := range instrs {
		instr := instrs[i]
		if err := f.ec.gas.Charge(f.chargeFor(instr.Op)); err != nil {
			return ctrlSignal{}, err
		}
		switch {
		case instr.Op.IsBlockStart():
			sig, err := f.execBlock(instr)
			if err != nil {
				return ctrlSignal{}, err
			}
			if sig.kind != ctrlNone {
				return sig, nil
			}
		case instr.Op == opcode.Br:
			return ctrlSignal{ctrlBranch, int(instr.Idx)}, nil
		case instr.Op == opcode.BrIf:
			if f.pop().I32() != 0 {
				return ctrlSignal{ctrlBranch, int(instr.Idx)}, nil
			}
		case instr.Op == opcode.BrTable:
			idx := uint32(f.pop().I32())
			target := instr.Default
			if int(idx) < len(instr.Labels) {
				target = instr.Labels[idx]
			}
			return ctrlSignal{ctrlBranch, int(target)}, nil
		case instr.Op == opcode.Return:
			return ctrlSignal{kind: ctrlReturn}, nil
		case instr.Op == opcode.Unreachable:
			return ctrlSignal{}, trap(instr.Op, nil, "unreachable executed")
		case instr.Op == opcode.Nop:
			// no-op
		default:
			if err := f.execSimple(instr); err != nil {
				return ctrlSignal{}, err
			}
		}
	}
	return sigNone, nil
}

func (f *frame) chargeFor(op opcode.Op) uint64 {
	if f.ec.gas == nil {
		return 0
	}
	return f.ec.gas.Policy.CostForOp(op)
}

// execBlock executes a block/loop/if instruction's body (recursing into
// execList), restoring the stack to exactly the declared result arity on
// normal exit and re-entering a loop's body on a branch targeting it.
func (f *frame) execBlock(instr wasm.Instr) (ctrlSignal, error) {
	f.blockDepth++
	if f.blockDepth > maxBlockDepth {
		f.blockDepth--
		return ctrlSignal{}, trap(instr.Op, nil, "block/loop/if nesting exceeds %d", maxBlockDepth)
	}
	defer func() { f.blockDepth-- }()

	base := len(f.stack)
	arity := 0
	if instr.HasResult {
		arity = 1
	}
	if instr.Op == opcode.If {
		cond := f.pop()
		base = len(f.stack)
		body := instr.Else
		if cond.I32() != 0 {
			body = instr.Body
		}
		return f.runBody(instr, body, base, arity)
	}
	return f.runBody(instr, instr.Body, base, arity)
}

func (f *frame) runBody(instr wasm.Instr, body []wasm.Instr, base, arity int) (ctrlSignal, error) {
	for {
		sig, err := f.execList(body)
		if err != nil {
			return ctrlSignal{}, err
		}
		switch sig.kind {
		case ctrlReturn:
			return sig, nil
		case ctrlNone:
			return f.mergeResult(base, arity), nil
		case ctrlBranch:
			if sig.depth > 0 {
				return ctrlSignal{ctrlBranch, sig.depth - 1}, nil
			}
			if instr.Op == opcode.Loop {
				f.stack = f.stack[:base]
				body = instr.Body
				continue
			}
			return f.mergeResult(base, arity), nil
		}
	}
}

// mergeResult truncates the operand stack back to base, preserving exactly
// the top arity values (0 or 1 at MVP) across the truncation.
func (f *frame) mergeResult(base, arity int) ctrlSignal {
	if arity == 0 {
		f.stack = f.stack[:base]
		return sigNone
	}
	top := f.stack[len(f.stack)-arity:]
	kept := append([]Value(nil), top...)
	f.stack = append(f.stack[:base], kept...)
	return sigNone
}

func (f *frame) mem(idx uint32) *MemoryInstance { return f.module.Mem(idx) }

func (f *frame) execCall(instr wasm.Instr) error {
	fi := f.module.Func(instr.Idx)
	return f.invokeAndPush(fi)
}

func (f *frame) execCallIndirect(instr wasm.Instr) error {
	table := f.module.Table(0)
	idx := uint32(f.pop().I32())
	addr, ok := table.Get(idx)
	if !ok {
		return trap(instr.Op, nil, "call_indirect: unset or out-of-range table index %d", idx)
	}
	fi := f.module.Store.Funcs[addr]
	expected := f.module.Types[instr.Idx]
	if !fi.Type.Equal(expected) {
		return trap(instr.Op, nil, "call_indirect: signature mismatch at table index %d", idx)
	}
	return f.invokeAndPush(fi)
}

func (f *frame) invokeAndPush(fi *FuncInstance) error {
	n := len(fi.Type.Params)
	if len(f.stack) < n {
		return trap(0, nil, "value stack underflow at call")
	}
	args := append([]Value(nil), f.stack[len(f.stack)-n:]...)
	f.stack = f.stack[:len(f.stack)-n]
	results, err := callFunc(f.ec, fi, args)
	if err != nil {
		return err
	}
	for _, r := range results {
		f.push(r)
	}
	return nil
}

// execSimple dispatches every instruction that is neither block-structured
// nor a control-flow primitive (those are handled directly in execList).
func (f *frame) execSimple(instr wasm.Instr) error {
	op := instr.Op
	switch {
	case op == opcode.I32Const:
		f.push(I32(instr.I32))
	case op == opcode.I64Const:
		f.push(I64(instr.I64))
	case op == opcode.F32Const:
		f.push(F32(instr.F32))
	case op == opcode.F64Const:
		f.push(F64(instr.F64))
	case op == opcode.Drop:
		f.pop()
	case op == opcode.Select:
		cond := f.pop()
		b := f.pop()
		a := f.pop()
		if cond.I32() != 0 {
			f.push(a)
		} else {
			f.push(b)
		}
	case op == opcode.LocalGet:
		f.push(f.locals[instr.Idx])
	case op == opcode.LocalSet:
		f.locals[instr.Idx] = f.pop()
	case op == opcode.LocalTee:
		f.locals[instr.Idx] = f.peek()
	case op == opcode.GlobalGet:
		f.push(f.module.Global(instr.Idx).Value)
	case op == opcode.GlobalSet:
		g := f.module.Global(instr.Idx)
		if !g.Type.Mutable {
			return trap(op, nil, "write to immutable global %d", instr.Idx)
		}
		g.Value = f.pop()
	case op == opcode.Call:
		return f.execCall(instr)
	case op == opcode.CallIndirect:
		return f.execCallIndirect(instr)
	case op == opcode.MemorySize:
		f.push(I32(int32(f.mem(0).Pages())))
	case op == opcode.MemoryGrow:
		return f.execMemoryGrow(instr)
	case isLoadOp(op):
		return f.execLoad(instr)
	case isStoreOp(op):
		return f.execStore(instr)
	case op == opcode.I32Eqz || op == opcode.I64Eqz:
		return f.execEqz(instr)
	default:
		if rel, bits, ok := relOpInfo(op); ok {
			b, a := f.pop(), f.pop()
			f.push(I32(int32(number.IntRel(bits, rel, a.Bits(), b.Bits()))))
			return nil
		}
		if un, bits, ok := intUnOpInfo(op); ok {
			a := f.pop()
			f.push(intValue(bits, number.IntUnary(bits, un, a.Bits())))
			return nil
		}
		if bin, bits, ok := intBinOpInfo(op); ok {
			b, a := f.pop(), f.pop()
			res, err := number.IntBinary(bits, bin, a.Bits(), b.Bits())
			if err != nil {
				return trap(op, []Value{a, b}, "%v", err)
			}
			f.push(intValue(bits, res))
			return nil
		}
		if frel, bits, ok := floatRelOpInfo(op); ok {
			b, a := f.pop(), f.pop()
			f.push(I32(int32(number.FloatRel(bits, frel, a.Bits(), b.Bits()))))
			return nil
		}
		if fun, bits, ok := floatUnOpInfo(op); ok {
			a := f.pop()
			f.push(floatValue(bits, number.FloatUnary(bits, fun, a.Bits())))
			return nil
		}
		if fbin, bits, ok := floatBinOpInfo(op); ok {
			b, a := f.pop(), f.pop()
			f.push(floatValue(bits, number.FloatBinary(bits, fbin, a.Bits(), b.Bits())))
			return nil
		}
		return f.execConvert(instr)
	}
	return nil
}

func (f *frame) execEqz(instr wasm.Instr) error {
	bits := 32
	if instr.Op == opcode.I64Eqz {
		bits = 64
	}
	a := f.pop()
	f.push(I32(int32(number.IEqz(bits, a.Bits()))))
	return nil
}

func (f *frame) execMemoryGrow(instr wasm.Instr) error {
	mem := f.mem(0)
	delta := uint32(f.pop().I32())
	if f.ec.gas != nil {
		if err := f.ec.gas.Charge(f.ec.gas.Policy.CostForGrow(delta)); err != nil {
			return err
		}
	}
	prev, ok := mem.Grow(delta)
	if !ok {
		f.push(I32(-1))
		return nil
	}
	f.push(I32(int32(prev)))
	return nil
}

func floatValue(bits int, raw uint64) Value {
	if bits == 32 {
		return F32FromBits(raw)
	}
	return F64FromBits(raw)
}
