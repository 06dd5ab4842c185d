package vm

import "github.com/vertexdlt/wasmexec/wasm"

// ExportInstance binds an export name to the kind and store address it
// resolved against at link time.
type ExportInstance struct {
	Kind byte
	Addr int
}

// ModuleInstance is a linked module: four index-to-address tables resolving
// the module's own index spaces into the owning store, the module's
// resolved type table, its export table, and a back-reference to the store.
// It carries no behavior of its own — package vm's interpreter reads it,
// and a Store owns everything it points into.
type ModuleInstance struct {
	Store *Store

	Types       []wasm.FuncType
	FuncAddrs   []int
	TableAddrs  []int
	MemAddrs    []int
	GlobalAddrs []int

	Exports map[string]ExportInstance
}

// Func resolves a funcidx in this module's index space to its instance.
func (mi *ModuleInstance) Func(idx uint32) *FuncInstance {
	return mi.Store.Funcs[mi.FuncAddrs[idx]]
}

// Table resolves a tableidx in this module's index space to its instance.
func (mi *ModuleInstance) Table(idx uint32) *TableInstance {
	return mi.Store.Tables[mi.TableAddrs[idx]]
}

// Mem resolves a memidx in this module's index space to its instance.
func (mi *ModuleInstance) Mem(idx uint32) *MemoryInstance {
	return mi.Store.Mems[mi.MemAddrs[idx]]
}

// Global resolves a globalidx in this module's index space to its instance.
func (mi *ModuleInstance) Global(idx uint32) *GlobalInstance {
	return mi.Store.Globals[mi.GlobalAddrs[idx]]
}

// Instance is the embedding-facing handle returned by Instantiate: a linked
// module instance plus whatever optional metering the embedder configured.
// Host code reaches raw tables/memories/globals through Instance.Module.Store
// for direct inspection and mutation (§6).
type Instance struct {
	Module *ModuleInstance
	gas    *GasMeter
}

// Store returns the store backing this instance, for direct host access to
// its tables, memories, and globals.
func (i *Instance) Store() *Store { return i.Module.Store }

// ExportNames returns every export name this instance defines, for hosts
// enumerating Instance.exports.
func (i *Instance) ExportNames() []string {
	names := make([]string, 0, len(i.Module.Exports))
	for name := range i.Module.Exports {
		names = append(names, name)
	}
	return names
}

// Invoke looks up name among this instance's function exports, checks the
// supplied arguments against its declared signature, and executes it.
// Coercion of host-language scalars to Value is the caller's job; Invoke
// only checks arity. Argument types are not checked: a Value of the wrong
// type is read by its raw bits as the parameter's type.
func (i *Instance) Invoke(name string, args ...Value) ([]Value, error) {
	exp, ok := i.Module.Exports[name]
	if !ok {
		return nil, &LinkError{Reason: "export not found: " + name}
	}
	if exp.Kind != wasm.ExternalFunction {
		return nil, &LinkError{Reason: "export is not a function: " + name}
	}
	fi := i.Module.Store.Funcs[exp.Addr]
	if len(args) != len(fi.Type.Params) {
		return nil, &LinkError{Reason: "wrong number of arguments for " + name}
	}
	ec := &execCtx{store: i.Module.Store, gas: i.gas}
	return callFunc(ec, fi, args)
}

// SetGasPolicy installs a metering policy with the given total budget.
// Consulted once per interpreter step and once per memory.grow page;
// exceeding limit surfaces ErrOutOfGas from Invoke, distinct from Trap.
func (i *Instance) SetGasPolicy(policy GasPolicy, limit uint64) {
	i.gas = &GasMeter{Policy: policy, Limit: limit}
}

// GasUsed reports cumulative gas charged against this instance so far, or 0
// if no policy is installed.
func (i *Instance) GasUsed() uint64 {
	if i.gas == nil {
		return 0
	}
	return i.gas.Used
}
