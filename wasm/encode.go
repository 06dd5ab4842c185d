package wasm

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/vertexdlt/wasmexec/leb128"
	"github.com/vertexdlt/wasmexec/opcode"
)

// Encode serializes m back to the MVP binary format: the structural inverse
// of Decode. Sections are emitted in canonical id order, each section whose
// backing slice is empty (or, for the start section, HasStart == false)
// omitted entirely — so decoding an encoded module reproduces the same
// nil/zero fields Decode itself would have left. Encode(Decode(b)) equals b
// only when b is canonical: sections in id order with custom sections last,
// no empty sections, minimal LEB128 encodings, and no empty else-arm; other
// inputs Decode accepts are re-encoded in that canonical form.
func Encode(m *Module) ([]byte, error) {
	var out bytes.Buffer
	var preamble [8]byte
	binary.LittleEndian.PutUint32(preamble[0:4], Magic)
	binary.LittleEndian.PutUint32(preamble[4:8], Version)
	out.Write(preamble[:])

	if len(m.Types) > 0 {
		writeSection(&out, secType, encodeTypeSection(m.Types))
	}
	if len(m.Imports) > 0 {
		body, err := encodeImportSection(m.Imports)
		if err != nil {
			return nil, err
		}
		writeSection(&out, secImport, body)
	}
	if len(m.FuncTypeIdxs) > 0 {
		writeSection(&out, secFunc, encodeFuncSection(m.FuncTypeIdxs))
	}
	if len(m.Tables) > 0 {
		writeSection(&out, secTable, encodeTableSection(m.Tables))
	}
	if len(m.Mems) > 0 {
		writeSection(&out, secMem, encodeMemSection(m.Mems))
	}
	if len(m.Globals) > 0 {
		body, err := encodeGlobalSection(m.Globals)
		if err != nil {
			return nil, err
		}
		writeSection(&out, secGlobal, body)
	}
	if len(m.Exports) > 0 {
		writeSection(&out, secExport, encodeExportSection(m.Exports))
	}
	if m.HasStart {
		writeSection(&out, secStart, leb128.WriteUint32(m.Start))
	}
	if len(m.Elements) > 0 {
		body, err := encodeElementSection(m.Elements)
		if err != nil {
			return nil, err
		}
		writeSection(&out, secElem, body)
	}
	if len(m.Codes) > 0 {
		body, err := encodeCodeSection(m.Codes)
		if err != nil {
			return nil, err
		}
		writeSection(&out, secCode, body)
	}
	if len(m.Datas) > 0 {
		body, err := encodeDataSection(m.Datas)
		if err != nil {
			return nil, err
		}
		writeSection(&out, secData, body)
	}
	for _, c := range m.Customs {
		writeSection(&out, secCustom, encodeCustomSection(c))
	}
	return out.Bytes(), nil
}

func writeSection(out *bytes.Buffer, id byte, body []byte) {
	out.WriteByte(id)
	out.Write(leb128.WriteUint32(uint32(len(body))))
	out.Write(body)
}

func encodeName(s string) []byte {
	b := []byte(s)
	return append(leb128.WriteUint32(uint32(len(b))), b...)
}

func encodeValueTypeVec(vts []ValueType) []byte {
	buf := leb128.WriteUint32(uint32(len(vts)))
	for _, vt := range vts {
		buf = append(buf, byte(vt))
	}
	return buf
}

func encodeLimits(l Limits) []byte {
	if l.HasMax {
		buf := append([]byte{0x01}, leb128.WriteUint32(l.Min)...)
		return append(buf, leb128.WriteUint32(l.Max)...)
	}
	return append([]byte{0x00}, leb128.WriteUint32(l.Min)...)
}

func encodeTableType(t TableType) []byte {
	return append([]byte{t.ElemType}, encodeLimits(t.Limits)...)
}

func encodeMemType(t MemType) []byte {
	return encodeLimits(t.Limits)
}

func encodeGlobalType(t GlobalType) []byte {
	mut := byte(0x00)
	if t.Mutable {
		mut = 0x01
	}
	return []byte{byte(t.ValType), mut}
}

func encodeTypeSection(types []FuncType) []byte {
	buf := leb128.WriteUint32(uint32(len(types)))
	for _, ft := range types {
		buf = append(buf, FuncTypeForm)
		buf = append(buf, encodeValueTypeVec(ft.Params)...)
		buf = append(buf, encodeValueTypeVec(ft.Results)...)
	}
	return buf
}

func encodeImportSection(imports []Import) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(imports)))
	for _, imp := range imports {
		buf = append(buf, encodeName(imp.Module)...)
		buf = append(buf, encodeName(imp.Name)...)
		buf = append(buf, imp.Desc.Kind)
		switch imp.Desc.Kind {
		case ExternalFunction:
			buf = append(buf, leb128.WriteUint32(imp.Desc.TypeIdx)...)
		case ExternalTable:
			buf = append(buf, encodeTableType(imp.Desc.Table)...)
		case ExternalMemory:
			buf = append(buf, encodeMemType(imp.Desc.Mem)...)
		case ExternalGlobal:
			buf = append(buf, encodeGlobalType(imp.Desc.GlobalType)...)
		default:
			return nil, malformed("encode: invalid import external kind %d", imp.Desc.Kind)
		}
	}
	return buf, nil
}

func encodeFuncSection(idxs []uint32) []byte {
	buf := leb128.WriteUint32(uint32(len(idxs)))
	for _, idx := range idxs {
		buf = append(buf, leb128.WriteUint32(idx)...)
	}
	return buf
}

func encodeTableSection(tables []TableType) []byte {
	buf := leb128.WriteUint32(uint32(len(tables)))
	for _, t := range tables {
		buf = append(buf, encodeTableType(t)...)
	}
	return buf
}

func encodeMemSection(mems []MemType) []byte {
	buf := leb128.WriteUint32(uint32(len(mems)))
	for _, mt := range mems {
		buf = append(buf, encodeMemType(mt)...)
	}
	return buf
}

func encodeGlobalSection(globals []Global) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(globals)))
	for _, g := range globals {
		buf = append(buf, encodeGlobalType(g.Type)...)
		init, err := encodeExpr(g.Init)
		if err != nil {
			return nil, err
		}
		buf = append(buf, init...)
	}
	return buf, nil
}

func encodeExportSection(exports []Export) []byte {
	buf := leb128.WriteUint32(uint32(len(exports)))
	for _, e := range exports {
		buf = append(buf, encodeName(e.Name)...)
		buf = append(buf, e.Desc.Kind)
		buf = append(buf, leb128.WriteUint32(e.Desc.Idx)...)
	}
	return buf
}

func encodeElementSection(elems []Element) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(elems)))
	for _, el := range elems {
		buf = append(buf, leb128.WriteUint32(el.TableIdx)...)
		offset, err := encodeExpr(el.Offset)
		if err != nil {
			return nil, err
		}
		buf = append(buf, offset...)
		buf = append(buf, leb128.WriteUint32(uint32(len(el.FuncIdxs)))...)
		for _, fi := range el.FuncIdxs {
			buf = append(buf, leb128.WriteUint32(fi)...)
		}
	}
	return buf, nil
}

func encodeCodeSection(codes []Code) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(codes)))
	for _, c := range codes {
		body, err := encodeFunctionBody(c)
		if err != nil {
			return nil, err
		}
		buf = append(buf, leb128.WriteUint32(uint32(len(body)))...)
		buf = append(buf, body...)
	}
	return buf, nil
}

func encodeFunctionBody(c Code) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(c.Locals)))
	for _, l := range c.Locals {
		buf = append(buf, leb128.WriteUint32(l.Count)...)
		buf = append(buf, byte(l.Type))
	}
	body, err := encodeExpr(c.Body)
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

func encodeDataSection(datas []Data) ([]byte, error) {
	buf := leb128.WriteUint32(uint32(len(datas)))
	for _, d := range datas {
		buf = append(buf, leb128.WriteUint32(d.MemIdx)...)
		offset, err := encodeExpr(d.Offset)
		if err != nil {
			return nil, err
		}
		buf = append(buf, offset...)
		buf = append(buf, leb128.WriteUint32(uint32(len(d.Init)))...)
		buf = append(buf, d.Init...)
	}
	return buf, nil
}

func encodeCustomSection(c CustomSection) []byte {
	return append(encodeName(c.Name), c.Payload...)
}

// encodeExpr encodes an instruction list as a constant/body expression,
// appending the trailing `end` opcode decodeInstrs consumes as a terminator
// rather than storing in the list.
func encodeExpr(instrs []Instr) ([]byte, error) {
	buf, err := encodeInstrList(instrs)
	if err != nil {
		return nil, err
	}
	return append(buf, byte(opcode.End)), nil
}

func encodeInstrList(instrs []Instr) ([]byte, error) {
	var buf []byte
	for _, instr := range instrs {
		b, err := encodeInstr(instr)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// encodeInstr encodes a single instruction, mirroring decodeInstr's opcode
// dispatch in reverse. Block-structured instructions encode their own
// trailing `end` (and `else`, if present) here rather than leaving it to
// the caller, since only this function knows whether an `if` had an Else.
func encodeInstr(instr Instr) ([]byte, error) {
	buf := []byte{byte(instr.Op)}
	switch instr.Op {
	case opcode.Block, opcode.Loop, opcode.If:
		buf = append(buf, encodeBlockType(instr)...)
		body, err := encodeInstrList(instr.Body)
		if err != nil {
			return nil, err
		}
		buf = append(buf, body...)
		if instr.Op == opcode.If && instr.Else != nil {
			buf = append(buf, byte(opcode.Else))
			elseBody, err := encodeInstrList(instr.Else)
			if err != nil {
				return nil, err
			}
			buf = append(buf, elseBody...)
		}
		buf = append(buf, byte(opcode.End))
		return buf, nil

	case opcode.Br, opcode.BrIf:
		return append(buf, leb128.WriteUint32(instr.Idx)...), nil

	case opcode.BrTable:
		buf = append(buf, leb128.WriteUint32(uint32(len(instr.Labels)))...)
		for _, l := range instr.Labels {
			buf = append(buf, leb128.WriteUint32(l)...)
		}
		return append(buf, leb128.WriteUint32(instr.Default)...), nil

	case opcode.Call, opcode.LocalGet, opcode.LocalSet, opcode.LocalTee,
		opcode.GlobalGet, opcode.GlobalSet:
		return append(buf, leb128.WriteUint32(instr.Idx)...), nil

	case opcode.CallIndirect:
		buf = append(buf, leb128.WriteUint32(instr.Idx)...)
		return append(buf, 0x00), nil

	case opcode.I32Const:
		return append(buf, leb128.WriteInt32(instr.I32)...), nil

	case opcode.I64Const:
		return append(buf, leb128.WriteInt64(instr.I64)...), nil

	case opcode.F32Const:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(instr.F32))
		return append(buf, b[:]...), nil

	case opcode.F64Const:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(instr.F64))
		return append(buf, b[:]...), nil

	default:
		if isMemOp(instr.Op) {
			buf = append(buf, leb128.WriteUint32(instr.Align)...)
			return append(buf, leb128.WriteUint32(instr.Offset)...), nil
		}
		if isMemSizeOrGrow(instr.Op) {
			return append(buf, 0x00), nil
		}
		if !isKnownOpcode(instr.Op) {
			return nil, malformed("encode: unknown opcode 0x%02X", byte(instr.Op))
		}
		return buf, nil
	}
}

func encodeBlockType(instr Instr) []byte {
	if !instr.HasResult {
		return []byte{opcode.BlockTypeEmpty}
	}
	return []byte{byte(instr.Result)}
}
