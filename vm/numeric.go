package vm

import (
	"github.com/vertexdlt/wasmexec/number"
	"github.com/vertexdlt/wasmexec/opcode"
)

// These tables map the two width-specific opcodes for each family (i32.*,
// i64.*) onto the single width-generic number.* operator, so the
// interpreter dispatches on (op) once and runs the bit-exact primitive at
// whichever width the opcode named. No behavior is attached to the opcode
// itself (§4.2): this is the table the opcode model's design note
// describes.

var intRelOps = map[opcode.Op]struct {
	op   number.IntRelOp
	bits int
}{
	opcode.I32Eq: {number.IEq, 32}, opcode.I64Eq: {number.IEq, 64},
	opcode.I32Ne: {number.INe, 32}, opcode.I64Ne: {number.INe, 64},
	opcode.I32LtS: {number.ILtS, 32}, opcode.I64LtS: {number.ILtS, 64},
	opcode.I32LtU: {number.ILtU, 32}, opcode.I64LtU: {number.ILtU, 64},
	opcode.I32GtS: {number.IGtS, 32}, opcode.I64GtS: {number.IGtS, 64},
	opcode.I32GtU: {number.IGtU, 32}, opcode.I64GtU: {number.IGtU, 64},
	opcode.I32LeS: {number.ILeS, 32}, opcode.I64LeS: {number.ILeS, 64},
	opcode.I32LeU: {number.ILeU, 32}, opcode.I64LeU: {number.ILeU, 64},
	opcode.I32GeS: {number.IGeS, 32}, opcode.I64GeS: {number.IGeS, 64},
	opcode.I32GeU: {number.IGeU, 32}, opcode.I64GeU: {number.IGeU, 64},
}

func relOpInfo(op opcode.Op) (number.IntRelOp, int, bool) {
	e, ok := intRelOps[op]
	return e.op, e.bits, ok
}

var intUnOps = map[opcode.Op]struct {
	op   number.IntUnOp
	bits int
}{
	opcode.I32Clz: {number.IClz, 32}, opcode.I64Clz: {number.IClz, 64},
	opcode.I32Ctz: {number.ICtz, 32}, opcode.I64Ctz: {number.ICtz, 64},
	opcode.I32Popcnt: {number.IPopcnt, 32}, opcode.I64Popcnt: {number.IPopcnt, 64},
}

func intUnOpInfo(op opcode.Op) (number.IntUnOp, int, bool) {
	e, ok := intUnOps[op]
	return e.op, e.bits, ok
}

var intBinOps = map[opcode.Op]struct {
	op   number.IntBinOp
	bits int
}{
	opcode.I32Add: {number.IAdd, 32}, opcode.I64Add: {number.IAdd, 64},
	opcode.I32Sub: {number.ISub, 32}, opcode.I64Sub: {number.ISub, 64},
	opcode.I32Mul: {number.IMul, 32}, opcode.I64Mul: {number.IMul, 64},
	opcode.I32DivS: {number.IDivS, 32}, opcode.I64DivS: {number.IDivS, 64},
	opcode.I32DivU: {number.IDivU, 32}, opcode.I64DivU: {number.IDivU, 64},
	opcode.I32RemS: {number.IRemS, 32}, opcode.I64RemS: {number.IRemS, 64},
	opcode.I32RemU: {number.IRemU, 32}, opcode.I64RemU: {number.IRemU, 64},
	opcode.I32And: {number.IAnd, 32}, opcode.I64And: {number.IAnd, 64},
	opcode.I32Or: {number.IOr, 32}, opcode.I64Or: {number.IOr, 64},
	opcode.I32Xor: {number.IXor, 32}, opcode.I64Xor: {number.IXor, 64},
	opcode.I32Shl: {number.IShl, 32}, opcode.I64Shl: {number.IShl, 64},
	opcode.I32ShrS: {number.IShrS, 32}, opcode.I64ShrS: {number.IShrS, 64},
	opcode.I32ShrU: {number.IShrU, 32}, opcode.I64ShrU: {number.IShrU, 64},
	opcode.I32Rotl: {number.IRotl, 32}, opcode.I64Rotl: {number.IRotl, 64},
	opcode.I32Rotr: {number.IRotr, 32}, opcode.I64Rotr: {number.IRotr, 64},
}

func intBinOpInfo(op opcode.Op) (number.IntBinOp, int, bool) {
	e, ok := intBinOps[op]
	return e.op, e.bits, ok
}

var floatRelOps = map[opcode.Op]struct {
	op   number.FloatRelOp
	bits int
}{
	opcode.F32Eq: {number.FEq, 32}, opcode.F64Eq: {number.FEq, 64},
	opcode.F32Ne: {number.FNe, 32}, opcode.F64Ne: {number.FNe, 64},
	opcode.F32Lt: {number.FLt, 32}, opcode.F64Lt: {number.FLt, 64},
	opcode.F32Gt: {number.FGt, 32}, opcode.F64Gt: {number.FGt, 64},
	opcode.F32Le: {number.FLe, 32}, opcode.F64Le: {number.FLe, 64},
	opcode.F32Ge: {number.FGe, 32}, opcode.F64Ge: {number.FGe, 64},
}

func floatRelOpInfo(op opcode.Op) (number.FloatRelOp, int, bool) {
	e, ok := floatRelOps[op]
	return e.op, e.bits, ok
}

var floatUnOps = map[opcode.Op]struct {
	op   number.FloatUnOp
	bits int
}{
	opcode.F32Abs: {number.FAbs, 32}, opcode.F64Abs: {number.FAbs, 64},
	opcode.F32Neg: {number.FNeg, 32}, opcode.F64Neg: {number.FNeg, 64},
	opcode.F32Ceil: {number.FCeil, 32}, opcode.F64Ceil: {number.FCeil, 64},
	opcode.F32Floor: {number.FFloor, 32}, opcode.F64Floor: {number.FFloor, 64},
	opcode.F32Trunc: {number.FTrunc, 32}, opcode.F64Trunc: {number.FTrunc, 64},
	opcode.F32Nearest: {number.FNearest, 32}, opcode.F64Nearest: {number.FNearest, 64},
	opcode.F32Sqrt: {number.FSqrt, 32}, opcode.F64Sqrt: {number.FSqrt, 64},
}

func floatUnOpInfo(op opcode.Op) (number.FloatUnOp, int, bool) {
	e, ok := floatUnOps[op]
	return e.op, e.bits, ok
}

var floatBinOps = map[opcode.Op]struct {
	op   number.FloatBinOp
	bits int
}{
	opcode.F32Add: {number.FAdd, 32}, opcode.F64Add: {number.FAdd, 64},
	opcode.F32Sub: {number.FSub, 32}, opcode.F64Sub: {number.FSub, 64},
	opcode.F32Mul: {number.FMul, 32}, opcode.F64Mul: {number.FMul, 64},
	opcode.F32Div: {number.FDiv, 32}, opcode.F64Div: {number.FDiv, 64},
	opcode.F32Min: {number.FMin, 32}, opcode.F64Min: {number.FMin, 64},
	opcode.F32Max: {number.FMax, 32}, opcode.F64Max: {number.FMax, 64},
	opcode.F32Copysign: {number.FCopysign, 32}, opcode.F64Copysign: {number.FCopysign, 64},
}

func floatBinOpInfo(op opcode.Op) (number.FloatBinOp, int, bool) {
	e, ok := floatBinOps[op]
	return e.op, e.bits, ok
}
