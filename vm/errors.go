package vm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertexdlt/wasmexec/opcode"
)

// LinkError reports an instantiation-time failure: an unresolved or
// ill-typed import, an imported table or memory smaller than its declared
// minimum, a function/code count mismatch, an invalid index, or an invalid
// constant expression. A segment landing out of bounds is a *TrapError.
type LinkError struct {
	Reason string
}

func (e *LinkError) Error() string { return "vm: link error: " + e.Reason }

func linkErr(format string, args ...interface{}) error {
	return &LinkError{Reason: fmt.Sprintf(format, args...)}
}

// TrapError reports a non-resumable execution failure. It carries the
// faulting instruction's opcode and an operand snapshot, and unwinds the
// current invocation in full: the caller's operand stack is discarded, but
// the store's memories/tables retain only whatever mutations had already
// fully applied before the fault (§5).
type TrapError struct {
	Reason   string
	Op       opcode.Op
	Operands []Value
}

func (e *TrapError) Error() string {
	if len(e.Operands) == 0 {
		return fmt.Sprintf("vm: trap: %s", e.Reason)
	}
	return fmt.Sprintf("vm: trap: %s (op=%s operands=%v)", e.Reason, e.Op, e.Operands)
}

func trap(op opcode.Op, operands []Value, format string, args ...interface{}) error {
	e := &TrapError{Reason: fmt.Sprintf(format, args...), Op: op, Operands: operands}
	Logger().Debug("trap", zap.Stringer("op", op), zap.String("reason", e.Reason))
	return e
}

// ErrOutOfGas is a fourth, opt-in failure kind: it is surfaced only when a
// non-FreeGasPolicy instance exhausts its configured budget, and is neither
// a Trap nor a LinkError (§9 design note on gas as an orthogonal concern).
var ErrOutOfGas = errors.New("vm: out of gas")

// ErrCallStackExhausted is returned (as a plain error, not a *TrapError)
// for a recursive local-function call nest deeper than maxCallDepth,
// standing in for the host stack overflow an unbounded tree-walking
// interpreter would otherwise risk.
var ErrCallStackExhausted = errors.New("vm: call stack exhausted")
