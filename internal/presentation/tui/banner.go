package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the qflip banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"              __ _ _       ", "#818cf8"},
		{"   __ _      / _| (_)_ __  ", "#a78bfa"},
		{"  / _` |____| |_| | | '_ \\ ", "#c084fc"},
		{" | (_| |____|  _| | | |_) |", "#e879f9"},
		{"  \\__, |    |_| |_|_| .__/ ", "#f472b6"},
		{"     |_|            |_|    ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
