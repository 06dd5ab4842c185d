package wasm

import (
	"bytes"
	"testing"

	"github.com/vertexdlt/wasmexec/leb128"
	"github.com/vertexdlt/wasmexec/opcode"
)

// moduleBytes prepends the magic/version preamble to a sequence of
// already-framed sections.
func moduleBytes(sections ...[]byte) []byte {
	buf := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		buf = append(buf, s...)
	}
	return buf
}

// section frames a section body with its id and LEB128 length prefix.
func section(id byte, body []byte) []byte {
	buf := []byte{id}
	buf = append(buf, leb128.WriteUint32(uint32(len(body)))...)
	return append(buf, body...)
}

func asMalformed(t *testing.T, err error) *MalformedError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	me, ok := err.(*MalformedError)
	if !ok {
		t.Fatalf("expected *MalformedError, got %T: %v", err, err)
	}
	return me
}

// TestDecodeLimitsUnsignedLiteralNoMax exercises the exact bytes spec.md
// names for a Limits with no maximum: flag 0x00, min 624485 (0xE5 0x8E 0x26).
func TestDecodeLimitsUnsignedLiteralNoMax(t *testing.T) {
	memSec := section(secMem, []byte{0x01, 0x00, 0xE5, 0x8E, 0x26})
	m, err := Decode(bytes.NewReader(moduleBytes(memSec)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Limits{Min: 624485, HasMax: false}
	if got := m.Mems[0].Limits; got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestDecodeLimitsUnsignedLiteralWithMax exercises the exact bytes spec.md
// names for a Limits with a maximum: flag 0x01, min 624485 (0xE5 0x8E 0x26),
// max encoded as 0xE4 0x8C 0xCA 0x81 0x0F.
func TestDecodeLimitsUnsignedLiteralWithMax(t *testing.T) {
	memSec := section(secMem, []byte{
		0x01,
		0x01, 0xE5, 0x8E, 0x26,
		0xE4, 0x8C, 0xCA, 0x81, 0x0F,
	})
	m, err := Decode(bytes.NewReader(moduleBytes(memSec)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Limits{Min: 624485, Max: 4029843044, HasMax: true}
	if got := m.Mems[0].Limits; got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestDecodeI32ConstSignedLiteral exercises spec.md's signed LEB128 scenario
// (0xC0 0xBB 0x78 -> -123456) at the instruction-decode level, inside a real
// function body rather than calling the leb128 package directly.
func TestDecodeI32ConstSignedLiteral(t *testing.T) {
	typeSec := section(secType, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(secFunc, []byte{0x01, 0x00})
	codeBody := []byte{0x00, 0x41, 0xC0, 0xBB, 0x78, 0x0B}
	codeSec := section(secCode, append([]byte{0x01, byte(len(codeBody))}, codeBody...))

	m, err := Decode(bytes.NewReader(moduleBytes(typeSec, funcSec, codeSec)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Codes) != 1 || len(m.Codes[0].Body) != 1 {
		t.Fatalf("unexpected function body shape: %+v", m.Codes)
	}
	instr := m.Codes[0].Body[0]
	if instr.Op != opcode.I32Const || instr.I32 != -123456 {
		t.Errorf("got %+v, want i32.const -123456", instr)
	}
}

func TestDecodeMalformedBadMagic(t *testing.T) {
	b := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	_, err := Decode(bytes.NewReader(b))
	asMalformed(t, err)
}

func TestDecodeMalformedBadVersion(t *testing.T) {
	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}
	_, err := Decode(bytes.NewReader(b))
	asMalformed(t, err)
}

func TestDecodeMalformedShortRead(t *testing.T) {
	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00} // version truncated
	_, err := Decode(bytes.NewReader(b))
	asMalformed(t, err)
}

func TestDecodeMalformedInvalidUTF8Name(t *testing.T) {
	// custom section whose name length is 1 but the byte is not valid UTF-8.
	customSec := section(secCustom, []byte{0x01, 0xFF})
	_, err := Decode(bytes.NewReader(moduleBytes(customSec)))
	asMalformed(t, err)
}

func TestDecodeMalformedLEB128Overflow(t *testing.T) {
	// ten groups (nine continuation bytes and a final one) for the type
	// section's vector length: exceeds the 32-bit budget leb128.Read enforces.
	overflowing := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	typeSec := section(secType, overflowing)
	_, err := Decode(bytes.NewReader(moduleBytes(typeSec)))
	asMalformed(t, err)
}

func TestDecodeMalformedBadValueType(t *testing.T) {
	// a function type with one param whose type byte (0x7A) is not one of
	// i32/i64/f32/f64.
	typeSec := section(secType, []byte{0x01, 0x60, 0x01, 0x7A, 0x00})
	_, err := Decode(bytes.NewReader(moduleBytes(typeSec)))
	asMalformed(t, err)
}

func TestDecodeMalformedUnknownOpcode(t *testing.T) {
	typeSec := section(secType, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(secFunc, []byte{0x01, 0x00})
	codeBody := []byte{0x00, 0xFC, 0x0B} // 0xFC is not an MVP opcode
	codeSec := section(secCode, append([]byte{0x01, byte(len(codeBody))}, codeBody...))

	_, err := Decode(bytes.NewReader(moduleBytes(typeSec, funcSec, codeSec)))
	asMalformed(t, err)
}

func TestDecodeMalformedBlockNestingTooDeep(t *testing.T) {
	typeSec := section(secType, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(secFunc, []byte{0x01, 0x00})

	var body []byte
	for i := 0; i <= maxBlockDepth; i++ {
		body = append(body, byte(opcode.Block), opcode.BlockTypeEmpty)
	}
	for i := 0; i <= maxBlockDepth; i++ {
		body = append(body, byte(opcode.End))
	}
	body = append(body, byte(opcode.End))
	codeBody := append([]byte{0x00}, body...)
	entry := append(leb128.WriteUint32(uint32(len(codeBody))), codeBody...)
	codeSec := section(secCode, append([]byte{0x01}, entry...))

	_, err := Decode(bytes.NewReader(moduleBytes(typeSec, funcSec, codeSec)))
	me := asMalformed(t, err)
	if me == nil {
		t.Fatal("expected malformed error for excessive block nesting")
	}
}
