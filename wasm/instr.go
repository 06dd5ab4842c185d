package wasm

import (
	"github.com/vertexdlt/wasmexec/leb128"
	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/util"
)

// Instr is a single decoded instruction. It is a closed-set tagged variant:
// Op selects which of the immediate fields below are meaningful. No
// behavior is attached here — package vm's interpreter is the sole
// consumer of Op plus immediates.
type Instr struct {
	Op opcode.Op

	// Block-structured instructions (block/loop/if) own a nested
	// instruction list; if additionally owns an else-list.
	HasResult bool
	Result    ValueType
	Body      []Instr
	Else      []Instr

	// Index immediates: funcidx, typeidx, localidx, globalidx, or labelidx
	// depending on Op.
	Idx uint32

	// br_table only: the jump vector and its trailing default label.
	Labels  []uint32
	Default uint32

	// Memory instructions only.
	Align  uint32
	Offset uint32

	// Constants.
	I32 int32
	I64 int64
	F32 float32
	F64 float64
}

// maxBlockDepth bounds block/loop/if nesting within one function body,
// matching vm.maxBlockDepth (that package cannot be imported from here, so
// the bound is duplicated rather than shared). Decoding recurses one Go
// stack frame per nesting level exactly as the interpreter does, so a
// module nested this deep is rejected here as Malformed instead of being
// handed to the interpreter only to crash it.
const maxBlockDepth = 1 << 12

func decodeInstrs(br *util.ByteReader, terminators map[byte]bool) ([]Instr, byte, error) {
	return decodeInstrsDepth(br, terminators, 0)
}

func decodeInstrsDepth(br *util.ByteReader, terminators map[byte]bool, depth int) ([]Instr, byte, error) {
	var instrs []Instr
	for {
		b, err := br.ReadOne()
		if err != nil {
			return nil, 0, malformed("unexpected end of instruction stream: %v", err)
		}
		if terminators[b] {
			return instrs, b, nil
		}
		instr, err := decodeInstr(br, opcode.Op(b), depth)
		if err != nil {
			return nil, 0, err
		}
		instrs = append(instrs, instr)
	}
}

var endOnly = map[byte]bool{byte(opcode.End): true}
var endOrElse = map[byte]bool{byte(opcode.End): true, byte(opcode.Else): true}

func decodeInstr(br *util.ByteReader, op opcode.Op, depth int) (Instr, error) {
	instr := Instr{Op: op}
	switch op {
	case opcode.Block, opcode.Loop, opcode.If:
		if depth >= maxBlockDepth {
			return instr, malformed("block/loop/if nesting exceeds %d", maxBlockDepth)
		}
		hasResult, result, err := decodeBlockType(br)
		if err != nil {
			return instr, err
		}
		instr.HasResult = hasResult
		instr.Result = result
		body, term, err := decodeInstrsDepth(br, endOrElse, depth+1)
		if err != nil {
			return instr, err
		}
		instr.Body = body
		if op == opcode.If && term == byte(opcode.Else) {
			elseBody, _, err := decodeInstrsDepth(br, endOnly, depth+1)
			if err != nil {
				return instr, err
			}
			instr.Else = elseBody
		}
		return instr, nil

	case opcode.Br, opcode.BrIf:
		idx, err := leb128.ReadUint32(br)
		if err != nil {
			return instr, malformed("bad label index: %v", err)
		}
		instr.Idx = idx
		return instr, nil

	case opcode.BrTable:
		n, err := leb128.ReadUint32(br)
		if err != nil {
			return instr, malformed("bad br_table vector length: %v", err)
		}
		labels := make([]uint32, n)
		for i := range labels {
			labels[i], err = leb128.ReadUint32(br)
			if err != nil {
				return instr, malformed("bad br_table target: %v", err)
			}
		}
		def, err := leb128.ReadUint32(br)
		if err != nil {
			return instr, malformed("bad br_table default: %v", err)
		}
		instr.Labels = labels
		instr.Default = def
		return instr, nil

	case opcode.Call, opcode.LocalGet, opcode.LocalSet, opcode.LocalTee,
		opcode.GlobalGet, opcode.GlobalSet:
		idx, err := leb128.ReadUint32(br)
		if err != nil {
			return instr, malformed("bad index operand: %v", err)
		}
		instr.Idx = idx
		return instr, nil

	case opcode.CallIndirect:
		idx, err := leb128.ReadUint32(br)
		if err != nil {
			return instr, malformed("bad type index: %v", err)
		}
		reserved, err := br.ReadOne()
		if err != nil {
			return instr, malformed("missing call_indirect reserved byte: %v", err)
		}
		if reserved != 0x00 {
			return instr, malformed("call_indirect reserved byte must be 0")
		}
		instr.Idx = idx
		return instr, nil

	case opcode.I32Const:
		v, err := leb128.ReadInt32(br)
		if err != nil {
			return instr, malformed("bad i32.const operand: %v", err)
		}
		instr.I32 = v
		return instr, nil

	case opcode.I64Const:
		v, err := leb128.ReadInt64(br)
		if err != nil {
			return instr, malformed("bad i64.const operand: %v", err)
		}
		instr.I64 = v
		return instr, nil

	case opcode.F32Const:
		bits, err := readU32(br)
		if err != nil {
			return instr, malformed("bad f32.const operand: %v", err)
		}
		instr.F32 = math32FromBits(bits)
		return instr, nil

	case opcode.F64Const:
		bits, err := readU64(br)
		if err != nil {
			return instr, malformed("bad f64.const operand: %v", err)
		}
		instr.F64 = math64FromBits(bits)
		return instr, nil

	default:
		if isMemOp(op) {
			align, err := leb128.ReadUint32(br)
			if err != nil {
				return instr, malformed("bad alignment operand: %v", err)
			}
			offset, err := leb128.ReadUint32(br)
			if err != nil {
				return instr, malformed("bad memory offset operand: %v", err)
			}
			instr.Align = align
			instr.Offset = offset
			return instr, nil
		}
		if isMemSizeOrGrow(op) {
			reserved, err := br.ReadOne()
			if err != nil {
				return instr, malformed("missing memory.size/grow reserved byte: %v", err)
			}
			if reserved != 0x00 {
				return instr, malformed("memory.size/grow reserved byte must be 0")
			}
			return instr, nil
		}
		if !isKnownOpcode(op) {
			return instr, malformed("unknown opcode 0x%02X", byte(op))
		}
		return instr, nil
	}
}

func isMemOp(op opcode.Op) bool {
	return op >= opcode.I32Load && op <= opcode.I64Store32
}

func isMemSizeOrGrow(op opcode.Op) bool {
	return op == opcode.MemorySize || op == opcode.MemoryGrow
}

func isKnownOpcode(op opcode.Op) bool {
	switch op {
	case opcode.Unreachable, opcode.Nop, opcode.End, opcode.Else,
		opcode.Return, opcode.Drop, opcode.Select:
		return true
	}
	if op >= opcode.I32Eqz && op <= opcode.F64ReinterpretI64 {
		return true
	}
	return false
}

func decodeBlockType(br *util.ByteReader) (bool, ValueType, error) {
	b, err := br.Peek()
	if err != nil {
		return false, 0, malformed("missing blocktype: %v", err)
	}
	if b == opcode.BlockTypeEmpty {
		br.ReadOne()
		return false, 0, nil
	}
	vt, err := readValueType(br)
	if err != nil {
		return false, 0, err
	}
	return true, vt, nil
}
