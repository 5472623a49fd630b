// Package circuit models the small gate-level circuits qflip submits to an execution backend.
package circuit

import (
	"errors"
	"fmt"
)

// Kind is the operation applied at one step of a circuit.
type Kind string

const (
	KindH       Kind = "h"
	KindX       Kind = "x"
	KindZ       Kind = "z"
	KindMeasure Kind = "measure"
)

// Op is a single-qubit gate or a measurement into a classical bit.
type Op struct {
	Kind  Kind `json:"kind"`
	Qubit int  `json:"qubit"`
	Clbit int  `json:"clbit,omitempty"`
}

// Circuit is an ordered list of operations over a quantum and a classical register.
type Circuit struct {
	Qubits int  `json:"qubits"`
	Clbits int  `json:"clbits"`
	Ops    []Op `json:"ops"`
}

// New creates an empty circuit.
func New(qubits, clbits int) *Circuit {
	return &Circuit{Qubits: qubits, Clbits: clbits}
}

// CoinFlip returns the one-qubit circuit that puts |0> into equal superposition and measures it.
func CoinFlip() *Circuit {
	return New(1, 1).H(0).Measure(0, 0)
}

// H appends a Hadamard gate.
func (c *Circuit) H(q int) *Circuit { return c.gate(KindH, q) }

// X appends a Pauli-X gate.
func (c *Circuit) X(q int) *Circuit { return c.gate(KindX, q) }

// Z appends a Pauli-Z gate.
func (c *Circuit) Z(q int) *Circuit { return c.gate(KindZ, q) }

// Measure appends a measurement of qubit q into classical bit cl.
func (c *Circuit) Measure(q, cl int) *Circuit {
	c.Ops = append(c.Ops, Op{Kind: KindMeasure, Qubit: q, Clbit: cl})
	return c
}

func (c *Circuit) gate(k Kind, q int) *Circuit {
	c.Ops = append(c.Ops, Op{Kind: k, Qubit: q})
	return c
}

// Validate checks register bounds and that at least one measurement exists.
func (c *Circuit) Validate() error {
	if c.Qubits <= 0 {
		return errors.New("circuit must have at least one qubit")
	}
	if c.Clbits <= 0 {
		return errors.New("circuit must have at least one classical bit")
	}
	measured := false
	for i, op := range c.Ops {
		if op.Qubit < 0 || op.Qubit >= c.Qubits {
			return fmt.Errorf("op %d: qubit %d out of range [0,%d)", i, op.Qubit, c.Qubits)
		}
		switch op.Kind {
		case KindH, KindX, KindZ:
		case KindMeasure:
			if op.Clbit < 0 || op.Clbit >= c.Clbits {
				return fmt.Errorf("op %d: classical bit %d out of range [0,%d)", i, op.Clbit, c.Clbits)
			}
			measured = true
		default:
			return fmt.Errorf("op %d: unsupported operation %q", i, op.Kind)
		}
	}
	if !measured {
		return errors.New("circuit has no measurements")
	}
	return nil
}
