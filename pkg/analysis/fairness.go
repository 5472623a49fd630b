// Package analysis measures how far a coin-flip histogram is from a fair coin.
package analysis

import (
	"github.com/aretw0/qflip/pkg/domain"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fairness runs a chi-square goodness-of-fit test of counts against a uniform
// distribution over the labels present. An empty histogram is reported as
// perfectly fair (statistic 0, p-value 1).
func Fairness(counts domain.Counts) domain.Fairness {
	total := counts.Total()
	labels := counts.Labels()
	if total == 0 || len(labels) == 0 {
		return domain.Fairness{PValue: 1}
	}

	observed := make([]float64, len(labels))
	expected := make([]float64, len(labels))
	each := float64(total) / float64(len(labels))
	for i, l := range labels {
		observed[i] = float64(counts[l])
		expected[i] = each
	}

	f := domain.Fairness{
		ChiSquare:  stat.ChiSquare(observed, expected),
		PValue:     1,
		HeadsRatio: float64(counts[domain.Heads]) / float64(total),
	}
	if dof := len(labels) - 1; dof > 0 {
		f.PValue = distuv.ChiSquared{K: float64(dof)}.Survival(f.ChiSquare)
	}
	return f
}
