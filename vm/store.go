package vm

import "github.com/vertexdlt/wasmexec/wasm"

// unset marks a table slot with no installed function address.
const unset = -1

// HostFunction is the one interface the core exposes outward for a module
// to call back into the embedder. It receives the store, the module
// instance that imported it, a locals argument that is always nil (the
// caller's locals are not passed, whether the call comes from the
// embedding API or from a `call` instruction), and the argument list, and
// returns an optional result plus an error. A nil result is only
// valid when the function's declared signature has no result type.
type HostFunction func(store *Store, module *ModuleInstance, locals []Value, args []Value) (*Value, error)

// FuncInstance is a runtime function: either a local function owned by a
// module instance, carrying its resolved signature, declared locals, and
// instruction list, or a host function wrapping an opaque Go callable.
type FuncInstance struct {
	Type wasm.FuncType

	// Module is the owning module for a local function, or the importing
	// module for a host function. Locals and Code are unused for a host
	// function.
	Module *ModuleInstance
	Locals []wasm.LocalEntry
	Code   []wasm.Instr

	// Host is non-nil for an imported host function.
	Host       HostFunction
	ImportName string // "module.name", for diagnostics only
}

// IsHost reports whether fi wraps a host callable rather than a local body.
func (fi *FuncInstance) IsHost() bool { return fi.Host != nil }

// numLocals returns the total local-slot count: declared params (supplied
// by the caller) plus every run-length-encoded declared local.
func (fi *FuncInstance) numLocals() int {
	n := len(fi.Type.Params)
	for _, e := range fi.Locals {
		n += int(e.Count)
	}
	return n
}

// TableInstance is a runtime table: a sparse index-to-function-address
// mapping with declared element type and limits. An unset slot traps on
// call_indirect.
type TableInstance struct {
	ElemType byte
	Max      uint32
	HasMax   bool
	elems    []int
}

// NewTableInstance allocates a table instance sized to min entries, all
// unset.
func NewTableInstance(elemType byte, min, max uint32, hasMax bool) *TableInstance {
	elems := make([]int, min)
	for i := range elems {
		elems[i] = unset
	}
	return &TableInstance{ElemType: elemType, Max: max, HasMax: hasMax, elems: elems}
}

// Size returns the table's current element count.
func (t *TableInstance) Size() int { return len(t.elems) }

// Get returns the function address installed at i, or ok=false if i is
// out of range or unset.
func (t *TableInstance) Get(i uint32) (int, bool) {
	if int(i) >= len(t.elems) {
		return 0, false
	}
	addr := t.elems[i]
	return addr, addr != unset
}

// Set installs addr at index i. The caller is responsible for the
// offset+length bounds check (§4.4 step 6); Set itself panics on an
// out-of-range index since it only runs against already-validated offsets.
func (t *TableInstance) Set(i uint32, addr int) {
	t.elems[i] = addr
}

// MemoryInstance is a runtime linear memory: a flat byte buffer whose
// length is always a multiple of wasm.PageSize.
type MemoryInstance struct {
	Data   []byte
	Max    uint32
	HasMax bool
}

// maxAddressablePages bounds memory.grow even when no declared maximum is
// present: a module's own load/store offsets are 32-bit, so memory can
// never usefully exceed the 4 GiB i32 address space.
const maxAddressablePages = 1 << 16

// NewMemoryInstance allocates a memory instance of min pages.
func NewMemoryInstance(min, max uint32, hasMax bool) *MemoryInstance {
	return &MemoryInstance{Data: make([]byte, uint64(min)*wasm.PageSize), Max: max, HasMax: hasMax}
}

// Pages reports the current size in 64 KiB pages.
func (m *MemoryInstance) Pages() uint32 { return uint32(len(m.Data) / wasm.PageSize) }

// Grow attempts to grow memory by delta pages, respecting the declared
// maximum (if any) and the 4 GiB address-space ceiling. It returns the
// prior page count and whether growth succeeded; a failed grow leaves
// memory completely unchanged (never partially applied).
func (m *MemoryInstance) Grow(delta uint32) (prev uint32, ok bool) {
	prev = m.Pages()
	next := uint64(prev) + uint64(delta)
	if next > maxAddressablePages {
		return prev, false
	}
	if m.HasMax && next > uint64(m.Max) {
		return prev, false
	}
	m.Data = append(m.Data, make([]byte, uint64(delta)*wasm.PageSize)...)
	return prev, true
}

// GlobalInstance is a runtime global: a value plus its mutability flag.
type GlobalInstance struct {
	Type  wasm.GlobalType
	Value Value
}

// Store is the per-embedding registry owning every runtime entity a linked
// module allocates into. Addresses are indices into these slices and are
// never reused: once appended, an entry keeps its slot for the store's
// lifetime.
type Store struct {
	Funcs   []*FuncInstance
	Tables  []*TableInstance
	Mems    []*MemoryInstance
	Globals []*GlobalInstance
}

// NewStore allocates an empty store.
func NewStore() *Store { return &Store{} }

// AllocFunc appends fi and returns its fresh store address.
func (s *Store) AllocFunc(fi *FuncInstance) int {
	s.Funcs = append(s.Funcs, fi)
	return len(s.Funcs) - 1
}

// AllocTable appends ti and returns its fresh store address.
func (s *Store) AllocTable(ti *TableInstance) int {
	s.Tables = append(s.Tables, ti)
	return len(s.Tables) - 1
}

// AllocMem appends mi and returns its fresh store address.
func (s *Store) AllocMem(mi *MemoryInstance) int {
	s.Mems = append(s.Mems, mi)
	return len(s.Mems) - 1
}

// AllocGlobal appends gi and returns its fresh store address.
func (s *Store) AllocGlobal(gi *GlobalInstance) int {
	s.Globals = append(s.Globals, gi)
	return len(s.Globals) - 1
}
