package simulator

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/aretw0/qflip/pkg/circuit"
)

// stateVector holds 2^n amplitudes; bit i of an index is qubit i.
type stateVector struct {
	amps []complex128
}

func newStateVector(qubits int) *stateVector {
	amps := make([]complex128, 1<<qubits)
	amps[0] = 1
	return &stateVector{amps: amps}
}

func (s *stateVector) apply(op circuit.Op) error {
	switch op.Kind {
	case circuit.KindH:
		s.hadamard(op.Qubit)
	case circuit.KindX:
		s.pauliX(op.Qubit)
	case circuit.KindZ:
		s.pauliZ(op.Qubit)
	default:
		return fmt.Errorf("simulator: unsupported gate %q", op.Kind)
	}
	return nil
}

// H = 1/√2 * [1  1]
//
//	[1 -1]
func (s *stateVector) hadamard(q int) {
	mask := 1 << q
	norm := complex(1/math.Sqrt2, 0)
	for i := range s.amps {
		if i&mask != 0 {
			continue
		}
		a, b := s.amps[i], s.amps[i|mask]
		s.amps[i] = (a + b) * norm
		s.amps[i|mask] = (a - b) * norm
	}
}

func (s *stateVector) pauliX(q int) {
	mask := 1 << q
	for i := range s.amps {
		if i&mask == 0 {
			s.amps[i], s.amps[i|mask] = s.amps[i|mask], s.amps[i]
		}
	}
}

func (s *stateVector) pauliZ(q int) {
	mask := 1 << q
	for i := range s.amps {
		if i&mask != 0 {
			s.amps[i] = -s.amps[i]
		}
	}
}

// probabilities returns |amp|^2 per basis state.
func (s *stateVector) probabilities() []float64 {
	p := make([]float64, len(s.amps))
	for i, a := range s.amps {
		m := cmplx.Abs(a)
		p[i] = m * m
	}
	return p
}
