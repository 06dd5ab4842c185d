package vm

import "github.com/vertexdlt/wasmexec/opcode"

// GasPolicy prices execution: a cost per interpreter step and a cost per
// page requested by memory.grow. It is an optional, cooperative resource
// limit layered on top of the core's trap/link error taxonomy — dropping in
// a policy never changes what traps, only when ErrOutOfGas preempts it.
type GasPolicy interface {
	CostForOp(op opcode.Op) uint64
	CostForGrow(pages uint32) uint64
}

// FreeGasPolicy charges nothing; it is the default for an Instance with no
// policy installed.
type FreeGasPolicy struct{}

// CostForOp always returns 0.
func (FreeGasPolicy) CostForOp(op opcode.Op) uint64 { return 0 }

// CostForGrow always returns 0.
func (FreeGasPolicy) CostForGrow(pages uint32) uint64 { return 0 }

// SimpleGasPolicy charges a flat 1 unit per instruction and 1024 units per
// page requested by memory.grow.
type SimpleGasPolicy struct{}

// CostForOp returns 1 for every opcode.
func (SimpleGasPolicy) CostForOp(op opcode.Op) uint64 { return 1 }

// CostForGrow returns 1024 per requested page.
func (SimpleGasPolicy) CostForGrow(pages uint32) uint64 { return uint64(pages) * 1024 }

// GasMeter tracks consumption against a policy and a total budget for one
// Instance. A nil *GasMeter charges nothing, so an Instance with no policy
// installed pays zero overhead per step.
type GasMeter struct {
	Policy GasPolicy
	Limit  uint64
	Used   uint64
}

// Charge adds cost to the running total and reports ErrOutOfGas once Limit
// is exceeded (a Limit of 0 means unbounded).
func (g *GasMeter) Charge(cost uint64) error {
	if g == nil || cost == 0 {
		return nil
	}
	g.Used += cost
	if g.Limit > 0 && g.Used > g.Limit {
		return ErrOutOfGas
	}
	return nil
}
