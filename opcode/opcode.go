// Package opcode defines the closed set of WebAssembly MVP instruction
// opcodes and classifies them into families the interpreter dispatches on.
// No behavior lives here: it is pure data, consumed by package wasm's
// decoder (to know which immediates follow) and package vm's interpreter
// (to know which stack effect and numeric operation to apply).
package opcode

// Op is a single WebAssembly instruction opcode byte.
type Op byte

// Control and parametric instructions.
const (
	Unreachable  Op = 0x00
	Nop          Op = 0x01
	Block        Op = 0x02
	Loop         Op = 0x03
	If           Op = 0x04
	Else         Op = 0x05
	End          Op = 0x0B
	Br           Op = 0x0C
	BrIf         Op = 0x0D
	BrTable      Op = 0x0E
	Return       Op = 0x0F
	Call         Op = 0x10
	CallIndirect Op = 0x11
	Drop         Op = 0x1A
	Select       Op = 0x1B
)

// Variable instructions.
const (
	LocalGet  Op = 0x20
	LocalSet  Op = 0x21
	LocalTee  Op = 0x22
	GlobalGet Op = 0x23
	GlobalSet Op = 0x24
)

// Memory instructions.
const (
	I32Load    Op = 0x28
	I64Load    Op = 0x29
	F32Load    Op = 0x2A
	F64Load    Op = 0x2B
	I32Load8S  Op = 0x2C
	I32Load8U  Op = 0x2D
	I32Load16S Op = 0x2E
	I32Load16U Op = 0x2F
	I64Load8S  Op = 0x30
	I64Load8U  Op = 0x31
	I64Load16S Op = 0x32
	I64Load16U Op = 0x33
	I64Load32S Op = 0x34
	I64Load32U Op = 0x35
	I32Store   Op = 0x36
	I64Store   Op = 0x37
	F32Store   Op = 0x38
	F64Store   Op = 0x39
	I32Store8  Op = 0x3A
	I32Store16 Op = 0x3B
	I64Store8  Op = 0x3C
	I64Store16 Op = 0x3D
	I64Store32 Op = 0x3E
	MemorySize Op = 0x3F
	MemoryGrow Op = 0x40
)

// Constants.
const (
	I32Const Op = 0x41
	I64Const Op = 0x42
	F32Const Op = 0x43
	F64Const Op = 0x44
)

// i32 tests, comparisons and arithmetic.
const (
	I32Eqz  Op = 0x45
	I32Eq   Op = 0x46
	I32Ne   Op = 0x47
	I32LtS  Op = 0x48
	I32LtU  Op = 0x49
	I32GtS  Op = 0x4A
	I32GtU  Op = 0x4B
	I32LeS  Op = 0x4C
	I32LeU  Op = 0x4D
	I32GeS  Op = 0x4E
	I32GeU  Op = 0x4F
)

// i64 tests and comparisons.
const (
	I64Eqz Op = 0x50
	I64Eq  Op = 0x51
	I64Ne  Op = 0x52
	I64LtS Op = 0x53
	I64LtU Op = 0x54
	I64GtS Op = 0x55
	I64GtU Op = 0x56
	I64LeS Op = 0x57
	I64LeU Op = 0x58
	I64GeS Op = 0x59
	I64GeU Op = 0x5A
)

// f32 and f64 comparisons.
const (
	F32Eq Op = 0x5B
	F32Ne Op = 0x5C
	F32Lt Op = 0x5D
	F32Gt Op = 0x5E
	F32Le Op = 0x5F
	F32Ge Op = 0x60
	F64Eq Op = 0x61
	F64Ne Op = 0x62
	F64Lt Op = 0x63
	F64Gt Op = 0x64
	F64Le Op = 0x65
	F64Ge Op = 0x66
)

// i32 arithmetic and bitwise ops.
const (
	I32Clz    Op = 0x67
	I32Ctz    Op = 0x68
	I32Popcnt Op = 0x69
	I32Add    Op = 0x6A
	I32Sub    Op = 0x6B
	I32Mul    Op = 0x6C
	I32DivS   Op = 0x6D
	I32DivU   Op = 0x6E
	I32RemS   Op = 0x6F
	I32RemU   Op = 0x70
	I32And    Op = 0x71
	I32Or     Op = 0x72
	I32Xor    Op = 0x73
	I32Shl    Op = 0x74
	I32ShrS   Op = 0x75
	I32ShrU   Op = 0x76
	I32Rotl   Op = 0x77
	I32Rotr   Op = 0x78
)

// i64 arithmetic and bitwise ops.
const (
	I64Clz    Op = 0x79
	I64Ctz    Op = 0x7A
	I64Popcnt Op = 0x7B
	I64Add    Op = 0x7C
	I64Sub    Op = 0x7D
	I64Mul    Op = 0x7E
	I64DivS   Op = 0x7F
	I64DivU   Op = 0x80
	I64RemS   Op = 0x81
	I64RemU   Op = 0x82
	I64And    Op = 0x83
	I64Or     Op = 0x84
	I64Xor    Op = 0x85
	I64Shl    Op = 0x86
	I64ShrS   Op = 0x87
	I64ShrU   Op = 0x88
	I64Rotl   Op = 0x89
	I64Rotr   Op = 0x8A
)

// f32 arithmetic.
const (
	F32Abs      Op = 0x8B
	F32Neg      Op = 0x8C
	F32Ceil     Op = 0x8D
	F32Floor    Op = 0x8E
	F32Trunc    Op = 0x8F
	F32Nearest  Op = 0x90
	F32Sqrt     Op = 0x91
	F32Add      Op = 0x92
	F32Sub      Op = 0x93
	F32Mul      Op = 0x94
	F32Div      Op = 0x95
	F32Min      Op = 0x96
	F32Max      Op = 0x97
	F32Copysign Op = 0x98
)

// f64 arithmetic.
const (
	F64Abs      Op = 0x99
	F64Neg      Op = 0x9A
	F64Ceil     Op = 0x9B
	F64Floor    Op = 0x9C
	F64Trunc    Op = 0x9D
	F64Nearest  Op = 0x9E
	F64Sqrt     Op = 0x9F
	F64Add      Op = 0xA0
	F64Sub      Op = 0xA1
	F64Mul      Op = 0xA2
	F64Div      Op = 0xA3
	F64Min      Op = 0xA4
	F64Max      Op = 0xA5
	F64Copysign Op = 0xA6
)

// Conversions and reinterpretations.
const (
	I32WrapI64        Op = 0xA7
	I32TruncF32S      Op = 0xA8
	I32TruncF32U      Op = 0xA9
	I32TruncF64S      Op = 0xAA
	I32TruncF64U      Op = 0xAB
	I64ExtendI32S     Op = 0xAC
	I64ExtendI32U     Op = 0xAD
	I64TruncF32S      Op = 0xAE
	I64TruncF32U      Op = 0xAF
	I64TruncF64S      Op = 0xB0
	I64TruncF64U      Op = 0xB1
	F32ConvertI32S    Op = 0xB2
	F32ConvertI32U    Op = 0xB3
	F32ConvertI64S    Op = 0xB4
	F32ConvertI64U    Op = 0xB5
	F32DemoteF64      Op = 0xB6
	F64ConvertI32S    Op = 0xB7
	F64ConvertI32U    Op = 0xB8
	F64ConvertI64S    Op = 0xB9
	F64ConvertI64U    Op = 0xBA
	F64PromoteF32     Op = 0xBB
	I32ReinterpretF32 Op = 0xBC
	I64ReinterpretF64 Op = 0xBD
	F32ReinterpretI32 Op = 0xBE
	F64ReinterpretI64 Op = 0xBF
)

// BlockTypeEmpty is the single-byte blocktype meaning "no result".
const BlockTypeEmpty byte = 0x40

var names = map[Op]string{
	Unreachable: "unreachable", Nop: "nop", Block: "block", Loop: "loop",
	If: "if", Else: "else", End: "end", Br: "br", BrIf: "br_if",
	BrTable: "br_table", Return: "return", Call: "call", CallIndirect: "call_indirect",
	Drop: "drop", Select: "select",
	LocalGet: "local.get", LocalSet: "local.set", LocalTee: "local.tee",
	GlobalGet: "global.get", GlobalSet: "global.set",
	I32Load: "i32.load", I64Load: "i64.load", F32Load: "f32.load", F64Load: "f64.load",
	I32Load8S: "i32.load8_s", I32Load8U: "i32.load8_u", I32Load16S: "i32.load16_s", I32Load16U: "i32.load16_u",
	I64Load8S: "i64.load8_s", I64Load8U: "i64.load8_u", I64Load16S: "i64.load16_s", I64Load16U: "i64.load16_u",
	I64Load32S: "i64.load32_s", I64Load32U: "i64.load32_u",
	I32Store: "i32.store", I64Store: "i64.store", F32Store: "f32.store", F64Store: "f64.store",
	I32Store8: "i32.store8", I32Store16: "i32.store16", I64Store8: "i64.store8", I64Store16: "i64.store16", I64Store32: "i64.store32",
	MemorySize: "memory.size", MemoryGrow: "memory.grow",
	I32Const: "i32.const", I64Const: "i64.const", F32Const: "f32.const", F64Const: "f64.const",
	I32Eqz: "i32.eqz", I64Eqz: "i64.eqz",
}

// String returns the canonical WebAssembly text-format mnemonic for the
// control, parametric, variable, memory, constant and eqz opcodes. Every
// other opcode, including the remaining numeric MVP ops, and any byte
// outside the MVP closed set, renders as "unknown".
func (op Op) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return "unknown"
}

// IsBlockStart reports whether op introduces a nested instruction list.
func (op Op) IsBlockStart() bool {
	return op == Block || op == Loop || op == If
}
