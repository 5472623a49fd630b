package circuit

import (
	"fmt"
	"strings"
)

// QASM2 renders the circuit as OpenQASM 2.0.
func (c *Circuit) QASM2() string {
	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", c.Qubits)
	fmt.Fprintf(&b, "creg c[%d];\n", c.Clbits)
	for _, op := range c.Ops {
		if op.Kind == KindMeasure {
			fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", op.Qubit, op.Clbit)
			continue
		}
		fmt.Fprintf(&b, "%s q[%d];\n", op.Kind, op.Qubit)
	}
	return b.String()
}

// QASM3 renders the circuit as OpenQASM 3.0, the form accepted by the runtime API.
func (c *Circuit) QASM3() string {
	var b strings.Builder
	b.WriteString("OPENQASM 3.0;\n")
	b.WriteString("include \"stdgates.inc\";\n")
	fmt.Fprintf(&b, "bit[%d] c;\n", c.Clbits)
	fmt.Fprintf(&b, "qubit[%d] q;\n", c.Qubits)
	for _, op := range c.Ops {
		if op.Kind == KindMeasure {
			fmt.Fprintf(&b, "c[%d] = measure q[%d];\n", op.Clbit, op.Qubit)
			continue
		}
		fmt.Fprintf(&b, "%s q[%d];\n", op.Kind, op.Qubit)
	}
	return b.String()
}
