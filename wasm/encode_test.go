package wasm

import (
	"bytes"
	"reflect"
	"testing"
)

// fullModuleBytes hand-assembles a module exercising one instance of every
// section this package encodes and decodes except import, table and element:
//
//	(module
//	  (type (func (param i32) (result i32)))
//	  (func (type 0) local.get 0 (block (result i32) i32.const 1) i32.add)
//	  (memory 1)
//	  (global i32 (mut) (i32.const 5))
//	  (export "run" (func 0))
//	  (start 0)
//	  (data (memory 0) (i32.const 0) "\aa\bb")
//	  ;; plus one custom section, "c" -> [0xEE]
//	)
var fullModuleBytes = moduleBytes(
	section(secType, []byte{0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f}),
	section(secFunc, []byte{0x01, 0x00}),
	section(secMem, []byte{0x01, 0x00, 0x01}),
	section(secGlobal, []byte{0x01, 0x7f, 0x01, 0x41, 0x05, 0x0b}),
	section(secExport, []byte{0x01, 0x03, 0x72, 0x75, 0x6e, 0x00, 0x00}),
	section(secStart, []byte{0x00}),
	section(secCode, []byte{0x01, 0x0a, 0x00, 0x20, 0x00, 0x02, 0x7f, 0x41, 0x01, 0x0b, 0x6a, 0x0b}),
	section(secData, []byte{0x01, 0x00, 0x41, 0x00, 0x0b, 0x02, 0xaa, 0xbb}),
	section(secCustom, []byte{0x01, 0x63, 0xee}),
)

// TestEncodeReproducesCanonicalBytes checks that re-encoding a module decoded
// from a minimal, canonically-encoded binary reproduces the exact original
// bytes: the byte-level round-trip property spec.md names.
func TestEncodeReproducesCanonicalBytes(t *testing.T) {
	m, err := Decode(bytes.NewReader(fullModuleBytes))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(got, fullModuleBytes) {
		t.Errorf("encode(decode(b)) != b\n got:  % x\n want: % x", got, fullModuleBytes)
	}
}

// TestDecodeEncodeStructuralRoundTrip checks that decoding an encoded module
// a second time reproduces a value-identical *Module, and that re-encoding
// that result is itself stable.
func TestDecodeEncodeStructuralRoundTrip(t *testing.T) {
	m1, err := Decode(bytes.NewReader(fullModuleBytes))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	b1, err := Encode(m1)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	m2, err := Decode(bytes.NewReader(b1))
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("decode(encode(m)) != m\n m1: %+v\n m2: %+v", m1, m2)
	}

	b2, err := Encode(m2)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Errorf("re-encoding a round-tripped module is not stable:\n b1: % x\n b2: % x", b1, b2)
	}
}

// TestEncodeUnknownOpcodeFails checks that Encode refuses to serialize an
// Instr carrying an opcode outside the MVP closed set, mirroring Decode's
// rejection of the same byte.
func TestEncodeUnknownOpcodeFails(t *testing.T) {
	m := &Module{
		Version:      Version,
		Types:        []FuncType{{}},
		FuncTypeIdxs: []uint32{0},
		Codes: []Code{{
			Body: []Instr{{Op: 0xFC}},
		}},
	}
	_, err := Encode(m)
	asMalformed(t, err)
}
