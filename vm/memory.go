package vm

import (
	"encoding/binary"

	"github.com/vertexdlt/wasmexec/number"
	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/wasm"
)

func isLoadOp(op opcode.Op) bool {
	return op >= opcode.I32Load && op <= opcode.I64Load32U
}

func isStoreOp(op opcode.Op) bool {
	return op >= opcode.I32Store && op <= opcode.I64Store32
}

// loadWidth gives the number of bytes a load opcode reads, and whether a
// narrow load sign-extends its result.
func loadWidth(op opcode.Op) (width int, signed bool) {
	switch op {
	case opcode.I32Load, opcode.F32Load:
		return 4, false
	case opcode.I64Load, opcode.F64Load:
		return 8, false
	case opcode.I32Load8S:
		return 1, true
	case opcode.I32Load8U:
		return 1, false
	case opcode.I32Load16S:
		return 2, true
	case opcode.I32Load16U:
		return 2, false
	case opcode.I64Load8S:
		return 1, true
	case opcode.I64Load8U:
		return 1, false
	case opcode.I64Load16S:
		return 2, true
	case opcode.I64Load16U:
		return 2, false
	case opcode.I64Load32S:
		return 4, true
	case opcode.I64Load32U:
		return 4, false
	default:
		return 0, false
	}
}

// effectiveAddr computes the memarg's linear byte address and traps if the
// access (of width bytes starting there) runs past the memory's current
// size. The index operand is always interpreted as unsigned, per §4.1/§7's
// "one, consistent address-space convention" resolution.
func effectiveAddr(instr wasm.Instr, mem *MemoryInstance, idx uint32, width int) (uint32, error) {
	ea := uint64(idx) + uint64(instr.Offset)
	if ea+uint64(width) > uint64(len(mem.Data)) {
		return 0, trap(instr.Op, nil, "out of bounds memory access (addr=%d offset=%d width=%d mem size=%d)", idx, instr.Offset, width, len(mem.Data))
	}
	return uint32(ea), nil
}

func (f *frame) execLoad(instr wasm.Instr) error {
	mem := f.mem(0)
	idx := uint32(f.pop().I32())
	width, signed := loadWidth(instr.Op)
	ea, err := effectiveAddr(instr, mem, idx, width)
	if err != nil {
		return err
	}
	raw := readLE(mem.Data[ea : ea+uint32(width)])

	switch instr.Op {
	case opcode.F32Load:
		f.push(F32FromBits(raw))
		return nil
	case opcode.F64Load:
		f.push(F64FromBits(raw))
		return nil
	}

	is64 := instr.Op >= opcode.I64Load && instr.Op <= opcode.I64Load32U
	bitWidth := width * 8
	if signed {
		raw = signExtend(raw, bitWidth)
	}
	if is64 {
		f.push(intValue(64, raw))
	} else {
		f.push(intValue(32, raw))
	}
	return nil
}

func (f *frame) execStore(instr wasm.Instr) error {
	mem := f.mem(0)
	val := f.pop()
	idx := uint32(f.pop().I32())

	var width int
	switch instr.Op {
	case opcode.I32Store, opcode.F32Store:
		width = 4
	case opcode.I64Store, opcode.F64Store:
		width = 8
	case opcode.I32Store8, opcode.I64Store8:
		width = 1
	case opcode.I32Store16, opcode.I64Store16:
		width = 2
	case opcode.I64Store32:
		width = 4
	}

	ea, err := effectiveAddr(instr, mem, idx, width)
	if err != nil {
		return err
	}
	writeLE(mem.Data[ea:ea+uint32(width)], val.Bits())
	return nil
}

func readLE(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func writeLE(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func signExtend(raw uint64, fromBits int) uint64 {
	shift := 64 - uint(fromBits)
	return uint64(int64(raw<<shift) >> shift)
}

// execConvert handles the closed set of numeric conversions and
// reinterpretations (opcodes 0xA7-0xBF): wrap, extend, truncate (trapping),
// convert, demote/promote, and bit-preserving reinterpret. It is the
// fallthrough of execSimple's dispatch chain, reached once every other
// family table has missed.
func (f *frame) execConvert(instr wasm.Instr) error {
	op := instr.Op
	switch op {
	case opcode.I32WrapI64:
		a := f.pop()
		f.push(intValue(32, number.WrapI64(a.Bits())))
	case opcode.I64ExtendI32S:
		a := f.pop()
		f.push(intValue(64, number.ExtendI32S(a.Bits())))
	case opcode.I64ExtendI32U:
		a := f.pop()
		f.push(intValue(64, number.ExtendI32U(a.Bits())))

	case opcode.I32TruncF32S, opcode.I32TruncF32U, opcode.I32TruncF64S, opcode.I32TruncF64U,
		opcode.I64TruncF32S, opcode.I64TruncF32U, opcode.I64TruncF64S, opcode.I64TruncF64U:
		fromBits, toBits, signed := truncInfo(op)
		a := f.pop()
		res, err := number.Trunc(fromBits, toBits, signed, a.Bits())
		if err != nil {
			return trap(op, []Value{a}, "%v", err)
		}
		f.push(intValue(toBits, res))

	case opcode.F32ConvertI32S, opcode.F32ConvertI32U, opcode.F32ConvertI64S, opcode.F32ConvertI64U,
		opcode.F64ConvertI32S, opcode.F64ConvertI32U, opcode.F64ConvertI64S, opcode.F64ConvertI64U:
		fromBits, toBits, signed := convertInfo(op)
		a := f.pop()
		f.push(floatValue(toBits, number.Convert(fromBits, toBits, signed, a.Bits())))

	case opcode.F32DemoteF64:
		a := f.pop()
		f.push(F32FromBits(number.DemoteF64(a.Bits())))
	case opcode.F64PromoteF32:
		a := f.pop()
		f.push(F64FromBits(number.PromoteF32(a.Bits())))

	case opcode.I32ReinterpretF32:
		a := f.pop()
		f.push(intValue(32, a.Bits()))
	case opcode.I64ReinterpretF64:
		a := f.pop()
		f.push(intValue(64, a.Bits()))
	case opcode.F32ReinterpretI32:
		a := f.pop()
		f.push(F32FromBits(a.Bits()))
	case opcode.F64ReinterpretI64:
		a := f.pop()
		f.push(F64FromBits(a.Bits()))

	default:
		return trap(op, nil, "unknown opcode %s", op)
	}
	return nil
}

func truncInfo(op opcode.Op) (fromBits, toBits int, signed bool) {
	switch op {
	case opcode.I32TruncF32S:
		return 32, 32, true
	case opcode.I32TruncF32U:
		return 32, 32, false
	case opcode.I32TruncF64S:
		return 64, 32, true
	case opcode.I32TruncF64U:
		return 64, 32, false
	case opcode.I64TruncF32S:
		return 32, 64, true
	case opcode.I64TruncF32U:
		return 32, 64, false
	case opcode.I64TruncF64S:
		return 64, 64, true
	default: // I64TruncF64U
		return 64, 64, false
	}
}

func convertInfo(op opcode.Op) (fromBits, toBits int, signed bool) {
	switch op {
	case opcode.F32ConvertI32S:
		return 32, 32, true
	case opcode.F32ConvertI32U:
		return 32, 32, false
	case opcode.F32ConvertI64S:
		return 64, 32, true
	case opcode.F32ConvertI64U:
		return 64, 32, false
	case opcode.F64ConvertI32S:
		return 32, 64, true
	case opcode.F64ConvertI32U:
		return 32, 64, false
	case opcode.F64ConvertI64S:
		return 64, 64, true
	default: // F64ConvertI64U
		return 64, 64, false
	}
}
