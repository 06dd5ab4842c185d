// Package util provides the low-level byte cursor used by the decoder and
// the leb128 readers.
package util

import "io"

// ByteReader is a forward-only cursor over an in-memory byte slice. Unlike
// bytes.Reader it exposes the remaining slice directly (CopyAll), which the
// decoder uses to take a custom section's payload.
type ByteReader struct {
	b      []byte
	curPos uint32
}

// NewByteReader wraps b for sequential reading starting at offset 0.
func NewByteReader(b []byte) *ByteReader {
	return &ByteReader{b: b}
}

// Read returns the next n bytes and advances the cursor, or io.EOF if fewer
// than n bytes remain.
func (wr *ByteReader) Read(n uint32) ([]byte, error) {
	if uint64(wr.curPos)+uint64(n) > uint64(len(wr.b)) {
		return nil, io.EOF
	}
	b := wr.b[wr.curPos : wr.curPos+n]
	wr.curPos += n
	return b, nil
}

// ReadOne returns the next single byte and advances the cursor by one.
func (wr *ByteReader) ReadOne() (byte, error) {
	if wr.curPos >= uint32(len(wr.b)) {
		return 0, io.EOF
	}
	b := wr.b[wr.curPos]
	wr.curPos++
	return b, nil
}

// Peek returns the next byte without advancing the cursor.
func (wr *ByteReader) Peek() (byte, error) {
	if wr.curPos >= uint32(len(wr.b)) {
		return 0, io.EOF
	}
	return wr.b[wr.curPos], nil
}

// CopyAll returns every remaining byte without advancing the cursor.
func (wr *ByteReader) CopyAll() []byte {
	return wr.b[wr.curPos:]
}

// Pos returns the current offset into the underlying slice.
func (wr *ByteReader) Pos() uint32 {
	return wr.curPos
}

// Seek repositions the cursor to an absolute offset within the slice.
func (wr *ByteReader) Seek(pos uint32) {
	wr.curPos = pos
}

// Len reports the number of unread bytes.
func (wr *ByteReader) Len() int {
	return len(wr.b) - int(wr.curPos)
}
