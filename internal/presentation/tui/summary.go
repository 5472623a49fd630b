package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/qflip/pkg/domain"
)

// SummaryMarkdown renders a classical vs. quantum comparison table for run.
func SummaryMarkdown(run *domain.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Run `%s`\n\n", run.ID)
	fmt.Fprintf(&b, "Backend **%s** · %d shots · rounding `%s`\n\n", run.Backend, run.Shots, run.Rounding)

	b.WriteString("| Source | Tails (0) | Heads (1) | Total | Heads ratio | χ² | p-value |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	row(&b, "Classical", run.Classical, run.ClassicalFairness)
	row(&b, run.Mode.Description(), run.Quantum, run.QuantumFairness)

	if deficit := run.Shots - run.Quantum.Total(); deficit > 0 {
		fmt.Fprintf(&b, "\n_%d shot(s) lost to truncation._\n", deficit)
	}
	return b.String()
}

func row(b *strings.Builder, name string, c domain.Counts, f domain.Fairness) {
	fmt.Fprintf(b, "| %s | %d | %d | %d | %.3f | %.3f | %.3f |\n",
		name, c[domain.Tails], c[domain.Heads], c.Total(), f.HeadsRatio, f.ChiSquare, f.PValue)
}

// HistoryMarkdown renders one line per stored run.
func HistoryMarkdown(runs []*domain.Run) string {
	if len(runs) == 0 {
		return "_No runs stored yet._\n"
	}

	var b strings.Builder
	b.WriteString("| ID | Started | Mode | Backend | Shots | Classical | Quantum |\n")
	b.WriteString("|---|---|---|---|---:|---|---|\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %d | %s | %s |\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			r.Backend,
			r.Shots,
			r.Classical,
			r.Quantum,
		)
	}
	return b.String()
}
