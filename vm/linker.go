package vm

import (
	"go.uber.org/zap"

	"github.com/vertexdlt/wasmexec/opcode"
	"github.com/vertexdlt/wasmexec/wasm"
)

// Extern is one supplied item in an Imports object: a HostFunction,
// *TableInstance, *MemoryInstance, or *GlobalInstance. Instantiate type-
// switches on it against each import's declared external kind.
type Extern interface{}

// Imports is the two-level `module_name -> item_name -> supplied_item`
// mapping the linker resolves a module's import section against. Extra
// names beyond what the module imports are permitted and ignored.
type Imports map[string]map[string]Extern

func (im Imports) lookup(module, name string) (Extern, bool) {
	names, ok := im[module]
	if !ok {
		return nil, false
	}
	e, ok := names[name]
	return e, ok
}

// Instantiate links m against imports, allocating every runtime entity into
// a fresh Store, and — if present — invokes the start function, per the
// seven-step procedure of §4.4. Failures in import resolution or local
// allocation (steps 1–3), and any invalid constant expression, are
// *LinkError; a segment landing out of bounds or a trap in the start
// function (steps 6–7) is *TrapError.
func Instantiate(m *wasm.Module, imports Imports) (*Instance, error) {
	Logger().Debug("instantiating module", zap.Int("imports", len(m.Imports)), zap.Int("funcs", len(m.FuncTypeIdxs)), zap.Int("exports", len(m.Exports)))
	store := NewStore()
	mi := &ModuleInstance{
		Store:   store,
		Types:   m.Types,
		Exports: make(map[string]ExportInstance),
	}

	// Step 1-2: validate and allocate imports, in import order, before any
	// local allocation — so the module's own index spaces see imports at
	// the low indices exactly as the binary format requires.
	numImportedGlobals := 0
	for _, imp := range m.Imports {
		item, ok := imports.lookup(imp.Module, imp.Name)
		if !ok {
			return nil, linkErr("missing import %s.%s", imp.Module, imp.Name)
		}
		switch imp.Desc.Kind {
		case wasm.ExternalFunction:
			fn, ok := item.(HostFunction)
			if !ok {
				return nil, linkErr("import %s.%s: expected a function", imp.Module, imp.Name)
			}
			if int(imp.Desc.TypeIdx) >= len(m.Types) {
				return nil, linkErr("import %s.%s: invalid type index %d", imp.Module, imp.Name, imp.Desc.TypeIdx)
			}
			addr := store.AllocFunc(&FuncInstance{
				Type:       m.Types[imp.Desc.TypeIdx],
				Module:     mi,
				Host:       fn,
				ImportName: imp.Module + "." + imp.Name,
			})
			mi.FuncAddrs = append(mi.FuncAddrs, addr)

		case wasm.ExternalTable:
			t, ok := item.(*TableInstance)
			if !ok {
				return nil, linkErr("import %s.%s: expected a table", imp.Module, imp.Name)
			}
			if uint32(t.Size()) < imp.Desc.Table.Limits.Min {
				return nil, linkErr("import %s.%s: table smaller than declared minimum", imp.Module, imp.Name)
			}
			addr := store.AllocTable(t)
			mi.TableAddrs = append(mi.TableAddrs, addr)

		case wasm.ExternalMemory:
			mem, ok := item.(*MemoryInstance)
			if !ok {
				return nil, linkErr("import %s.%s: expected a memory", imp.Module, imp.Name)
			}
			if mem.Pages() < imp.Desc.Mem.Limits.Min {
				return nil, linkErr("import %s.%s: memory smaller than declared minimum", imp.Module, imp.Name)
			}
			addr := store.AllocMem(mem)
			mi.MemAddrs = append(mi.MemAddrs, addr)

		case wasm.ExternalGlobal:
			g, ok := item.(*GlobalInstance)
			if !ok {
				return nil, linkErr("import %s.%s: expected a global", imp.Module, imp.Name)
			}
			if g.Type.ValType != imp.Desc.GlobalType.ValType || g.Type.Mutable != imp.Desc.GlobalType.Mutable {
				return nil, linkErr("import %s.%s: global type mismatch", imp.Module, imp.Name)
			}
			addr := store.AllocGlobal(g)
			mi.GlobalAddrs = append(mi.GlobalAddrs, addr)
			numImportedGlobals++

		default:
			return nil, linkErr("import %s.%s: unknown external kind %d", imp.Module, imp.Name, imp.Desc.Kind)
		}
	}

	// Step 3: allocate local functions, pairing section-3 type indices
	// with section-10 bodies.
	if len(m.FuncTypeIdxs) != len(m.Codes) {
		return nil, linkErr("function section declares %d functions but code section has %d bodies", len(m.FuncTypeIdxs), len(m.Codes))
	}
	for i, typeIdx := range m.FuncTypeIdxs {
		if int(typeIdx) >= len(m.Types) {
			return nil, linkErr("local function %d: invalid type index %d", i, typeIdx)
		}
		addr := store.AllocFunc(&FuncInstance{
			Type:   m.Types[typeIdx],
			Module: mi,
			Locals: m.Codes[i].Locals,
			Code:   m.Codes[i].Body,
		})
		mi.FuncAddrs = append(mi.FuncAddrs, addr)
	}

	// Step 4: allocate tables and memories with their parsed limits.
	for _, t := range m.Tables {
		addr := store.AllocTable(NewTableInstance(t.ElemType, t.Limits.Min, t.Limits.Max, t.Limits.HasMax))
		mi.TableAddrs = append(mi.TableAddrs, addr)
	}
	for _, mt := range m.Mems {
		addr := store.AllocMem(NewMemoryInstance(mt.Limits.Min, mt.Limits.Max, mt.Limits.HasMax))
		mi.MemAddrs = append(mi.MemAddrs, addr)
	}

	// Allocate globals by evaluating each initializer in a restricted
	// context: no locals, and visibility limited to globals allocated
	// before this point (i.e. only imported globals, per the MVP
	// restriction that init exprs may not reference locally-declared
	// globals).
	visibleGlobals := append([]int(nil), mi.GlobalAddrs...)
	for _, g := range m.Globals {
		val, err := evalConstExpr(store, visibleGlobals, g.Init)
		if err != nil {
			return nil, err
		}
		addr := store.AllocGlobal(&GlobalInstance{Type: g.Type, Value: val})
		mi.GlobalAddrs = append(mi.GlobalAddrs, addr)
	}

	// Step 5: build the export table.
	for _, exp := range m.Exports {
		var addr int
		switch exp.Desc.Kind {
		case wasm.ExternalFunction:
			if int(exp.Desc.Idx) >= len(mi.FuncAddrs) {
				return nil, linkErr("export %s: invalid function index %d", exp.Name, exp.Desc.Idx)
			}
			addr = mi.FuncAddrs[exp.Desc.Idx]
		case wasm.ExternalTable:
			if int(exp.Desc.Idx) >= len(mi.TableAddrs) {
				return nil, linkErr("export %s: invalid table index %d", exp.Name, exp.Desc.Idx)
			}
			addr = mi.TableAddrs[exp.Desc.Idx]
		case wasm.ExternalMemory:
			if int(exp.Desc.Idx) >= len(mi.MemAddrs) {
				return nil, linkErr("export %s: invalid memory index %d", exp.Name, exp.Desc.Idx)
			}
			addr = mi.MemAddrs[exp.Desc.Idx]
		case wasm.ExternalGlobal:
			if int(exp.Desc.Idx) >= len(mi.GlobalAddrs) {
				return nil, linkErr("export %s: invalid global index %d", exp.Name, exp.Desc.Idx)
			}
			addr = mi.GlobalAddrs[exp.Desc.Idx]
		default:
			return nil, linkErr("export %s: unknown external kind %d", exp.Name, exp.Desc.Kind)
		}
		mi.Exports[exp.Name] = ExportInstance{Kind: exp.Desc.Kind, Addr: addr}
	}

	// Step 6: element and data segments. All globals are allocated now, so
	// offset expressions may reference any of them.
	for _, el := range m.Elements {
		offVal, err := evalConstExpr(store, mi.GlobalAddrs, el.Offset)
		if err != nil {
			return nil, err
		}
		if int(el.TableIdx) >= len(mi.TableAddrs) {
			return nil, trap(opcode.End, nil, "element segment: invalid table index %d", el.TableIdx)
		}
		table := mi.Table(el.TableIdx)
		offset := uint32(offVal.I32())
		if uint64(offset)+uint64(len(el.FuncIdxs)) > uint64(table.Size()) {
			return nil, trap(opcode.End, nil, "element segment out of bounds (offset=%d len=%d table size=%d)", offset, len(el.FuncIdxs), table.Size())
		}
		for i, fidx := range el.FuncIdxs {
			if int(fidx) >= len(mi.FuncAddrs) {
				return nil, trap(opcode.End, nil, "element segment: invalid function index %d", fidx)
			}
			table.Set(offset+uint32(i), mi.FuncAddrs[fidx])
		}
	}
	for _, d := range m.Datas {
		offVal, err := evalConstExpr(store, mi.GlobalAddrs, d.Offset)
		if err != nil {
			return nil, err
		}
		if int(d.MemIdx) >= len(mi.MemAddrs) {
			return nil, trap(opcode.End, nil, "data segment: invalid memory index %d", d.MemIdx)
		}
		mem := mi.Mem(d.MemIdx)
		offset := uint32(offVal.I32())
		if uint64(offset)+uint64(len(d.Init)) > uint64(len(mem.Data)) {
			return nil, trap(opcode.End, nil, "data segment out of bounds (offset=%d len=%d mem size=%d)", offset, len(d.Init), len(mem.Data))
		}
		copy(mem.Data[offset:], d.Init)
	}

	inst := &Instance{Module: mi}

	// Step 7: run the start function, if any.
	if m.HasStart {
		if int(m.Start) >= len(mi.FuncAddrs) {
			return nil, trap(opcode.End, nil, "start function: invalid index %d", m.Start)
		}
		Logger().Debug("running start function", zap.Uint32("funcidx", m.Start))
		fi := mi.Func(m.Start)
		ec := &execCtx{store: store, gas: inst.gas}
		if _, err := callFunc(ec, fi, nil); err != nil {
			Logger().Warn("start function trapped", zap.Error(err))
			return nil, err
		}
	}

	return inst, nil
}

// evalConstExpr evaluates a single-instruction constant expression (a
// global initializer, or an element/data segment's offset) against the
// supplied global visibility list. Only *.const and global.get are valid
// constant-expression opcodes at MVP.
func evalConstExpr(store *Store, globalAddrs []int, instrs []wasm.Instr) (Value, error) {
	if len(instrs) != 1 {
		return Value{}, linkErr("constant expression must contain exactly one instruction")
	}
	instr := instrs[0]
	switch instr.Op {
	case opcode.I32Const:
		return I32(instr.I32), nil
	case opcode.I64Const:
		return I64(instr.I64), nil
	case opcode.F32Const:
		return F32(instr.F32), nil
	case opcode.F64Const:
		return F64(instr.F64), nil
	case opcode.GlobalGet:
		if int(instr.Idx) >= len(globalAddrs) {
			return Value{}, linkErr("constant expression references out-of-range global %d", instr.Idx)
		}
		return store.Globals[globalAddrs[instr.Idx]].Value, nil
	default:
		return Value{}, linkErr("unsupported constant-expression opcode %s", instr.Op)
	}
}
