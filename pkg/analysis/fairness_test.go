package analysis_test

import (
	"testing"

	"github.com/aretw0/qflip/pkg/analysis"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestFairness_PerfectlyFair(t *testing.T) {
	f := analysis.Fairness(domain.Counts{"0": 500, "1": 500})
	assert.InDelta(t, 0, f.ChiSquare, 1e-12)
	assert.InDelta(t, 1, f.PValue, 1e-9)
	assert.InDelta(t, 0.5, f.HeadsRatio, 1e-12)
}

func TestFairness_Biased(t *testing.T) {
	f := analysis.Fairness(domain.Counts{"0": 400, "1": 600})
	// (100^2 + 100^2) / 500
	assert.InDelta(t, 40, f.ChiSquare, 1e-9)
	assert.Less(t, f.PValue, 1e-6)
	assert.InDelta(t, 0.6, f.HeadsRatio, 1e-12)
}

func TestFairness_Empty(t *testing.T) {
	f := analysis.Fairness(domain.Counts{"0": 0, "1": 0})
	assert.Equal(t, domain.Fairness{PValue: 1}, f)

	assert.Equal(t, domain.Fairness{PValue: 1}, analysis.Fairness(nil))
}

func TestFairness_SingleOutcome(t *testing.T) {
	f := analysis.Fairness(domain.Counts{"1": 10})
	assert.Equal(t, 1.0, f.PValue)
	assert.Equal(t, 1.0, f.HeadsRatio)
}
