package wasm

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/vertexdlt/wasmexec/leb128"
	"github.com/vertexdlt/wasmexec/util"
)

// section ids, in the order the spec assigns them.
const (
	secCustom = 0
	secType   = 1
	secImport = 2
	secFunc   = 3
	secTable  = 4
	secMem    = 5
	secGlobal = 6
	secExport = 7
	secStart  = 8
	secElem   = 9
	secCode   = 10
	secData   = 11
)

// Decode parses a complete .wasm binary from r into a Module. It performs no
// linking: the result is a pure description of the module's sections and
// function bodies.
func Decode(r io.Reader) (*Module, error) {
	magic, err := readU32FromReader(r)
	if err != nil {
		return nil, malformed("short read of magic number: %v", err)
	}
	if magic != Magic {
		return nil, malformed("bad magic number: 0x%08X", magic)
	}
	version, err := readU32FromReader(r)
	if err != nil {
		return nil, malformed("short read of version: %v", err)
	}
	if version != Version {
		return nil, malformed("unsupported version: %d", version)
	}

	m := &Module{Version: version}
	seen := make(map[byte]bool)
	for {
		idByte := make([]byte, 1)
		if _, err := io.ReadFull(r, idByte); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, malformed("reading section id: %v", err)
		}
		id := idByte[0]

		size, err := leb128ReadUint32FromReader(r)
		if err != nil {
			return nil, malformed("reading section size: %v", err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, malformed("short section body (id=%d): %v", id, err)
		}

		if id != secCustom {
			if seen[id] {
				return nil, malformed("section id %d appears more than once", id)
			}
			seen[id] = true
		}

		br := util.NewByteReader(body)
		if err := decodeSection(m, id, br); err != nil {
			return nil, err
		}
	}

	if len(m.Codes) != len(m.FuncTypeIdxs) {
		return nil, malformed("function section declares %d functions but code section has %d bodies", len(m.FuncTypeIdxs), len(m.Codes))
	}
	return m, nil
}

func decodeSection(m *Module, id byte, br *util.ByteReader) error {
	switch id {
	case secCustom:
		name, err := readName(br)
		if err != nil {
			return err
		}
		m.Customs = append(m.Customs, CustomSection{Name: name, Payload: append([]byte(nil), br.CopyAll()...)})
		return nil
	case secType:
		return decodeTypeSection(m, br)
	case secImport:
		return decodeImportSection(m, br)
	case secFunc:
		return decodeFuncSection(m, br)
	case secTable:
		return decodeTableSection(m, br)
	case secMem:
		return decodeMemSection(m, br)
	case secGlobal:
		return decodeGlobalSection(m, br)
	case secExport:
		return decodeExportSection(m, br)
	case secStart:
		idx, err := leb128.ReadUint32(br)
		if err != nil {
			return malformed("bad start section: %v", err)
		}
		m.HasStart = true
		m.Start = idx
		return nil
	case secElem:
		return decodeElementSection(m, br)
	case secCode:
		return decodeCodeSection(m, br)
	case secData:
		return decodeDataSection(m, br)
	default:
		return malformed("unknown section id %d", id)
	}
}

func decodeTypeSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("type section length: %v", err)
	}
	m.Types = make([]FuncType, n)
	for i := range m.Types {
		form, err := br.ReadOne()
		if err != nil || form != FuncTypeForm {
			return malformed("invalid functype form byte")
		}
		params, err := readValueTypeVec(br)
		if err != nil {
			return err
		}
		results, err := readValueTypeVec(br)
		if err != nil {
			return err
		}
		if len(results) > 1 {
			return malformed("function type declares more than one result (post-MVP multi-value)")
		}
		m.Types[i] = FuncType{Params: params, Results: results}
	}
	return nil
}

func decodeImportSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("import section length: %v", err)
	}
	m.Imports = make([]Import, n)
	for i := range m.Imports {
		modName, err := readName(br)
		if err != nil {
			return err
		}
		name, err := readName(br)
		if err != nil {
			return err
		}
		kind, err := br.ReadOne()
		if err != nil {
			return malformed("import kind: %v", err)
		}
		var desc ImportDesc
		desc.Kind = kind
		switch kind {
		case ExternalFunction:
			desc.TypeIdx, err = leb128.ReadUint32(br)
		case ExternalTable:
			desc.Table, err = readTableType(br)
		case ExternalMemory:
			desc.Mem, err = readMemType(br)
		case ExternalGlobal:
			desc.GlobalType, err = readGlobalType(br)
		default:
			return malformed("invalid import external kind %d", kind)
		}
		if err != nil {
			return err
		}
		m.Imports[i] = Import{Module: modName, Name: name, Desc: desc}
	}
	return nil
}

func decodeFuncSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("function section length: %v", err)
	}
	m.FuncTypeIdxs = make([]uint32, n)
	for i := range m.FuncTypeIdxs {
		m.FuncTypeIdxs[i], err = leb128.ReadUint32(br)
		if err != nil {
			return malformed("function section type index: %v", err)
		}
	}
	return nil
}

func decodeTableSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("table section length: %v", err)
	}
	m.Tables = make([]TableType, n)
	for i := range m.Tables {
		m.Tables[i], err = readTableType(br)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeMemSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("memory section length: %v", err)
	}
	m.Mems = make([]MemType, n)
	for i := range m.Mems {
		m.Mems[i], err = readMemType(br)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeGlobalSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("global section length: %v", err)
	}
	m.Globals = make([]Global, n)
	for i := range m.Globals {
		gt, err := readGlobalType(br)
		if err != nil {
			return err
		}
		init, _, err := decodeInstrs(br, endOnly)
		if err != nil {
			return malformed("global initializer: %v", err)
		}
		m.Globals[i] = Global{Type: gt, Init: init}
	}
	return nil
}

func decodeExportSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("export section length: %v", err)
	}
	m.Exports = make([]Export, n)
	for i := range m.Exports {
		name, err := readName(br)
		if err != nil {
			return err
		}
		kind, err := br.ReadOne()
		if err != nil {
			return malformed("export kind: %v", err)
		}
		if kind > ExternalGlobal {
			return malformed("invalid export kind %d", kind)
		}
		idx, err := leb128.ReadUint32(br)
		if err != nil {
			return malformed("export index: %v", err)
		}
		m.Exports[i] = Export{Name: name, Desc: ExportDesc{Kind: kind, Idx: idx}}
	}
	return nil
}

func decodeElementSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("element section length: %v", err)
	}
	m.Elements = make([]Element, n)
	for i := range m.Elements {
		tableIdx, err := leb128.ReadUint32(br)
		if err != nil {
			return err
		}
		offset, _, err := decodeInstrs(br, endOnly)
		if err != nil {
			return malformed("element offset expr: %v", err)
		}
		count, err := leb128.ReadUint32(br)
		if err != nil {
			return err
		}
		funcIdxs := make([]uint32, count)
		for j := range funcIdxs {
			funcIdxs[j], err = leb128.ReadUint32(br)
			if err != nil {
				return err
			}
		}
		m.Elements[i] = Element{TableIdx: tableIdx, Offset: offset, FuncIdxs: funcIdxs}
	}
	return nil
}

func decodeCodeSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("code section length: %v", err)
	}
	m.Codes = make([]Code, n)
	for i := range m.Codes {
		size, err := leb128.ReadUint32(br)
		if err != nil {
			return err
		}
		bodyBytes, err := br.Read(size)
		if err != nil {
			return malformed("short function body: %v", err)
		}
		fbr := util.NewByteReader(bodyBytes)
		locals, err := decodeLocals(fbr)
		if err != nil {
			return err
		}
		body, _, err := decodeInstrs(fbr, endOnly)
		if err != nil {
			return malformed("function body: %v", err)
		}
		m.Codes[i] = Code{Locals: locals, Body: body}
	}
	return nil
}

func decodeLocals(br *util.ByteReader) ([]LocalEntry, error) {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return nil, malformed("local declaration count: %v", err)
	}
	locals := make([]LocalEntry, n)
	for i := range locals {
		count, err := leb128.ReadUint32(br)
		if err != nil {
			return nil, err
		}
		vt, err := readValueType(br)
		if err != nil {
			return nil, err
		}
		locals[i] = LocalEntry{Count: count, Type: vt}
	}
	return locals, nil
}

func decodeDataSection(m *Module, br *util.ByteReader) error {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return malformed("data section length: %v", err)
	}
	m.Datas = make([]Data, n)
	for i := range m.Datas {
		memIdx, err := leb128.ReadUint32(br)
		if err != nil {
			return err
		}
		offset, _, err := decodeInstrs(br, endOnly)
		if err != nil {
			return malformed("data offset expr: %v", err)
		}
		size, err := leb128.ReadUint32(br)
		if err != nil {
			return err
		}
		init, err := br.Read(size)
		if err != nil {
			return malformed("short data segment: %v", err)
		}
		m.Datas[i] = Data{MemIdx: memIdx, Offset: offset, Init: append([]byte(nil), init...)}
	}
	return nil
}

// --- shared low-level readers ---

func readU32FromReader(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func leb128ReadUint32FromReader(r io.Reader) (uint32, error) {
	// Section sizes are read directly off the outer io.Reader, before a
	// ByteReader sub-view exists for this section.
	var shift uint
	var result uint32
	for {
		b := make([]byte, 1)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		result |= uint32(b[0]&0x7f) << shift
		shift += 7
		if b[0]&0x80 == 0 {
			break
		}
		if shift > 35 {
			return 0, malformed("section size leb128 overflow")
		}
	}
	return result, nil
}

func readU32(br *util.ByteReader) (uint32, error) {
	b, err := br.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readU64(br *util.ByteReader) (uint64, error) {
	b, err := br.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func math32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func math64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

func readValueType(br *util.ByteReader) (ValueType, error) {
	b, err := br.ReadOne()
	if err != nil {
		return 0, malformed("short read of value type: %v", err)
	}
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return ValueType(b), nil
	default:
		return 0, malformed("invalid value type byte 0x%02X", b)
	}
}

func readValueTypeVec(br *util.ByteReader) ([]ValueType, error) {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return nil, malformed("value type vector length: %v", err)
	}
	out := make([]ValueType, n)
	for i := range out {
		out[i], err = readValueType(br)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readName(br *util.ByteReader) (string, error) {
	n, err := leb128.ReadUint32(br)
	if err != nil {
		return "", malformed("name length: %v", err)
	}
	b, err := br.Read(n)
	if err != nil {
		return "", malformed("short name: %v", err)
	}
	if !utf8.Valid(b) {
		return "", malformed("name is not valid utf-8")
	}
	return string(b), nil
}

func readLimits(br *util.ByteReader) (Limits, error) {
	flag, err := br.ReadOne()
	if err != nil {
		return Limits{}, malformed("limits flag: %v", err)
	}
	var lim Limits
	switch flag {
	case 0x00:
		lim.Min, err = leb128.ReadUint32(br)
	case 0x01:
		lim.Min, err = leb128.ReadUint32(br)
		if err == nil {
			lim.Max, err = leb128.ReadUint32(br)
			lim.HasMax = true
		}
	default:
		return Limits{}, malformed("invalid limits flag %d", flag)
	}
	if err != nil {
		return Limits{}, malformed("limits bounds: %v", err)
	}
	return lim, nil
}

func readTableType(br *util.ByteReader) (TableType, error) {
	elemType, err := br.ReadOne()
	if err != nil {
		return TableType{}, malformed("table elem type: %v", err)
	}
	if elemType != ElemTypeFuncRef {
		return TableType{}, malformed("invalid table element type 0x%02X (only funcref exists at MVP)", elemType)
	}
	lim, err := readLimits(br)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elemType, Limits: lim}, nil
}

func readMemType(br *util.ByteReader) (MemType, error) {
	lim, err := readLimits(br)
	if err != nil {
		return MemType{}, err
	}
	return MemType{Limits: lim}, nil
}

func readGlobalType(br *util.ByteReader) (GlobalType, error) {
	vt, err := readValueType(br)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := br.ReadOne()
	if err != nil {
		return GlobalType{}, malformed("global mutability flag: %v", err)
	}
	if mut != 0x00 && mut != 0x01 {
		return GlobalType{}, malformed("invalid global mutability flag %d", mut)
	}
	return GlobalType{ValType: vt, Mutable: mut == 0x01}, nil
}
