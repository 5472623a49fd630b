package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// Draw renders a text diagram of the circuit, one column per operation:
//
//	     ┌───┐┌─┐
//	  q: ┤ H ├┤M├
//	     └───┘└╥┘
//	c: 1/══════╩═
//	           0
func (c *Circuit) Draw() string {
	qlabels := make([]string, c.Qubits)
	for i := range qlabels {
		if c.Qubits == 1 {
			qlabels[i] = "q: "
		} else {
			qlabels[i] = fmt.Sprintf("q_%d: ", i)
		}
	}
	clabel := fmt.Sprintf("c: %d/", c.Clbits)

	width := runeLen(clabel)
	for _, l := range qlabels {
		width = max(width, runeLen(l))
	}

	// three rows per qubit, then the classical wire and its index row
	rows := make([]strings.Builder, 3*c.Qubits+2)
	cwire, cidx := &rows[3*c.Qubits], &rows[3*c.Qubits+1]
	for i, l := range qlabels {
		rows[3*i].WriteString(pad("", width))
		rows[3*i+1].WriteString(pad(l, width))
		rows[3*i+2].WriteString(pad("", width))
	}
	cwire.WriteString(pad(clabel, width))
	cidx.WriteString(pad("", width))

	for _, op := range c.Ops {
		if op.Kind == KindMeasure {
			for i := range c.Qubits {
				switch {
				case i == op.Qubit:
					writeColumn(rows[3*i:3*i+3], "┌─┐", "┤M├", "└╥┘")
				case i > op.Qubit:
					writeColumn(rows[3*i:3*i+3], " ║ ", "─╫─", " ║ ")
				default:
					writeColumn(rows[3*i:3*i+3], "   ", "───", "   ")
				}
			}
			cwire.WriteString("═╩═")
			idx := strconv.Itoa(op.Clbit)
			if len(idx) == 1 {
				idx = " " + idx + " "
			}
			cidx.WriteString(idx)
			continue
		}

		name := strings.ToUpper(string(op.Kind))
		w := runeLen(name) + 4
		edge := strings.Repeat("─", w-2)
		for i := range c.Qubits {
			if i == op.Qubit {
				writeColumn(rows[3*i:3*i+3], "┌"+edge+"┐", "┤ "+name+" ├", "└"+edge+"┘")
			} else {
				writeColumn(rows[3*i:3*i+3], strings.Repeat(" ", w), strings.Repeat("─", w), strings.Repeat(" ", w))
			}
		}
		cwire.WriteString(strings.Repeat("═", w))
		cidx.WriteString(strings.Repeat(" ", w))
	}

	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = strings.TrimRight(rows[i].String(), " ")
	}
	return strings.Join(lines, "\n")
}

func writeColumn(rows []strings.Builder, top, mid, bot string) {
	rows[0].WriteString(top)
	rows[1].WriteString(mid)
	rows[2].WriteString(bot)
}

func pad(s string, width int) string {
	return strings.Repeat(" ", width-runeLen(s)) + s
}

func runeLen(s string) int {
	return len([]rune(s))
}
