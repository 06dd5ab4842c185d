// Package hostenv provides a minimal "env" import module for sample guest
// modules: a sha3-keyed key/value store plus a debug print, adapted from
// the teacher's Resolver/storageMap demo to the vm.HostFunction ABI.
package hostenv

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/vertexdlt/wasmexec/vm"
)

// Storage is an in-process key/value store exposed to a guest module as the
// "env" import module: print_bytes, set_storage, get_storage, and
// get_value_size, each addressing the caller's linear memory by offset/length
// pairs exactly as the teacher's Resolver did.
type Storage struct {
	data map[[32]byte][]byte
	log  *zap.Logger
}

// New returns an empty Storage. A nil logger disables debug output.
func New(log *zap.Logger) *Storage {
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{data: make(map[[32]byte][]byte), log: log}
}

// Imports returns the vm.Imports object exposing s as the "env" module.
func (s *Storage) Imports() vm.Imports {
	return vm.Imports{
		"env": {
			"print_bytes":    vm.HostFunction(s.printBytes),
			"set_storage":    vm.HostFunction(s.setStorage),
			"get_storage":    vm.HostFunction(s.getStorage),
			"get_value_size": vm.HostFunction(s.getValueSize),
		},
	}
}

func readAt(module *vm.ModuleInstance, ptr, size uint32) []byte {
	data := module.Mem(0).Data
	return data[ptr : ptr+size]
}

func (s *Storage) printBytes(_ *vm.Store, module *vm.ModuleInstance, _ []vm.Value, args []vm.Value) (*vm.Value, error) {
	ptr := uint32(args[0].I32())
	size := uint32(args[1].I32())
	msg := string(readAt(module, ptr, size))
	s.log.Debug("guest print_bytes", zap.String("msg", msg))
	ret := vm.I32(0)
	return &ret, nil
}

func (s *Storage) setStorage(_ *vm.Store, module *vm.ModuleInstance, _ []vm.Value, args []vm.Value) (*vm.Value, error) {
	keyPtr, keySize := uint32(args[0].I32()), uint32(args[1].I32())
	valuePtr, valueSize := uint32(args[2].I32()), uint32(args[3].I32())
	key := readAt(module, keyPtr, keySize)
	value := append([]byte(nil), readAt(module, valuePtr, valueSize)...)
	s.data[sha3.Sum256(key)] = value
	ret := vm.I32(0)
	return &ret, nil
}

func (s *Storage) getStorage(_ *vm.Store, module *vm.ModuleInstance, _ []vm.Value, args []vm.Value) (*vm.Value, error) {
	keyPtr, keySize := uint32(args[0].I32()), uint32(args[1].I32())
	valuePtr := uint32(args[2].I32())
	key := readAt(module, keyPtr, keySize)
	value := s.data[sha3.Sum256(key)]
	if len(value) > 0 {
		copy(module.Mem(0).Data[valuePtr:], value)
	}
	ret := vm.I32(int32(valuePtr))
	return &ret, nil
}

func (s *Storage) getValueSize(_ *vm.Store, module *vm.ModuleInstance, _ []vm.Value, args []vm.Value) (*vm.Value, error) {
	keyPtr, keySize := uint32(args[0].I32()), uint32(args[1].I32())
	key := readAt(module, keyPtr, keySize)
	value := s.data[sha3.Sum256(key)]
	ret := vm.I32(int32(len(value)))
	return &ret, nil
}
