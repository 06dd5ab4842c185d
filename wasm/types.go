// Package wasm decodes the WebAssembly 1.0 (MVP) binary module format into
// an in-memory description: sections, types, and per-function instruction
// trees. It performs no linking or execution; see package vm for that.
package wasm

// ValueType is one of the four WebAssembly MVP value types.
type ValueType byte

// The WebAssembly MVP value types, tagged by their binary encoding byte.
const (
	ValueTypeI32 ValueType = 0x7F
	ValueTypeI64 ValueType = 0x7E
	ValueTypeF32 ValueType = 0x7D
	ValueTypeF64 ValueType = 0x7C
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "invalid"
	}
}

// IsFloat reports whether t is f32 or f64.
func (t ValueType) IsFloat() bool {
	return t == ValueTypeF32 || t == ValueTypeF64
}

// Bits returns the bit width of t: 32 or 64.
func (t ValueType) Bits() int {
	if t == ValueTypeI32 || t == ValueTypeF32 {
		return 32
	}
	return 64
}

// Magic is the 4-byte WebAssembly binary preamble, '\0asm'.
const Magic uint32 = 0x6d736100

// Version is the only binary format version this decoder accepts.
const Version uint32 = 0x1

// PageSize is the unit, in bytes, in which linear memory grows.
const PageSize = 65536

// FuncTypeForm is the leading byte of every function type entry.
const FuncTypeForm byte = 0x60

// ElemTypeFuncRef is the only element type defined at MVP.
const ElemTypeFuncRef byte = 0x70

// External kind tags used by import and export entries.
const (
	ExternalFunction byte = 0x00
	ExternalTable    byte = 0x01
	ExternalMemory   byte = 0x02
	ExternalGlobal   byte = 0x03
)

// FuncType is a function signature: ordered parameter and result types.
// WebAssembly 1.0 permits at most one result type.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether ft and other describe the same signature.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// Limits bounds a table's or memory's size, in elements or pages
// respectively.
type Limits struct {
	Min uint32
	Max uint32
	HasMax bool
}

// TableType describes a table import/declaration. Only funcref tables exist
// at MVP.
type TableType struct {
	ElemType byte
	Limits   Limits
}

// MemType describes a memory import/declaration.
type MemType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ImportDesc is the tagged union of things a module can import.
type ImportDesc struct {
	Kind       byte
	TypeIdx    uint32
	Table      TableType
	Mem        MemType
	GlobalType GlobalType
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// Global is one entry of the global section: its type and constant
// initializer expression.
type Global struct {
	Type GlobalType
	Init []Instr
}

// ExportDesc names which index space an export's Idx resolves against.
type ExportDesc struct {
	Kind byte
	Idx  uint32
}

// Export is one entry of the export section.
type Export struct {
	Name string
	Desc ExportDesc
}

// Element is one entry of the element section: a table index, a constant
// i32 offset expression, and the function indices to install starting at
// that offset.
type Element struct {
	TableIdx uint32
	Offset   []Instr
	FuncIdxs []uint32
}

// LocalEntry is a run-length-encoded group of declared locals sharing a
// value type.
type LocalEntry struct {
	Count uint32
	Type  ValueType
}

// Code is the decoded body of a local function: its declared locals and
// instruction list (without the closing 0x0B of the function, which the
// decoder consumes).
type Code struct {
	Locals []LocalEntry
	Body   []Instr
}

// Data is one entry of the data section: a memory index, a constant i32
// offset expression, and the bytes to copy starting at that offset.
type Data struct {
	MemIdx uint32
	Offset []Instr
	Init   []byte
}

// CustomSection preserves a user-defined section verbatim, by name and raw
// payload, so a re-encode of a decoded module is byte-identical.
type CustomSection struct {
	Name    string
	Payload []byte
}

// Module is the fully decoded description of a .wasm binary: every section,
// with function bodies already parsed into instruction trees. It carries no
// runtime state — see vm.Store and vm.Instance for that.
type Module struct {
	Version uint32

	Types   []FuncType
	Imports []Import
	// FuncTypeIdxs maps each local function (by function-index-space
	// position, after imported functions) to its type-section index.
	FuncTypeIdxs []uint32
	Tables       []TableType
	Mems         []MemType
	Globals      []Global
	Exports      []Export
	HasStart     bool
	Start        uint32
	Elements     []Element
	Codes        []Code
	Datas        []Data
	Customs      []CustomSection
}

// NumImportedFuncs returns how many of m.Imports are function imports.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == ExternalFunction {
			n++
		}
	}
	return n
}
