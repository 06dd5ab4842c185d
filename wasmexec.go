// Package wasmexec is the embedding facade for the decoder, linker, and
// interpreter in packages wasm and vm: decode a binary module,
// link it against a host import object, and invoke its exports.
package wasmexec

import (
	"io"

	"github.com/vertexdlt/wasmexec/vm"
	"github.com/vertexdlt/wasmexec/wasm"
)

// Value is a runtime value passed to or returned from an invocation.
type Value = vm.Value

// Imports is the two-level module_name -> item_name -> supplied_item object
// a module's import section resolves against.
type Imports = vm.Imports

// Extern is one item an Imports object may supply: a vm.HostFunction,
// *vm.TableInstance, *vm.MemoryInstance, or *vm.GlobalInstance.
type Extern = vm.Extern

// Instance is a linked, runnable module.
type Instance = vm.Instance

// Compile decodes a WebAssembly binary module from r without linking it.
func Compile(r io.Reader) (*wasm.Module, error) {
	return wasm.Decode(r)
}

// Instantiate links m against imports, allocates its runtime entities into a
// fresh store, and runs its start function if it declares one.
func Instantiate(m *wasm.Module, imports Imports) (*Instance, error) {
	return vm.Instantiate(m, imports)
}
