package wasm

import "fmt"

// MalformedError reports a structural violation of the binary format,
// detected during decoding. It is one of the three error kinds the
// embedding API surfaces (see package vm for LinkError and Trap).
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("wasm: malformed module: %s", e.Reason)
}

func malformed(format string, args ...interface{}) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}
