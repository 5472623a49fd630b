package tests

import (
	"context"
	"testing"

	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/ports"
)

// GatewayContractTest is a reusable test suite that verifies if an adapter complies with
// ports.ExecutionGateway when running the coin-flip circuit.
func GatewayContractTest(t *testing.T, gw ports.ExecutionGateway, shots int) {
	t.Helper()

	t.Run("Name", func(t *testing.T) {
		if gw.Name() == "" {
			t.Error("gateway name must not be empty")
		}
	})

	t.Run("CoinFlip_Distribution", func(t *testing.T) {
		exec, err := gw.Run(context.Background(), circuit.CoinFlip(), shots)
		if err != nil {
			t.Fatalf("unexpected error running coin flip: %v", err)
		}
		if exec.Backend == "" {
			t.Error("execution must report its backend")
		}
		if exec.Shots != shots {
			t.Errorf("shots mismatch. got %d, want %d", exec.Shots, shots)
		}
		for label, p := range exec.Distribution {
			if label != "0" && label != "1" {
				t.Errorf("unexpected outcome label %q", label)
			}
			if p < 0 || p > 1 {
				t.Errorf("probability for %q out of range: %v", label, p)
			}
		}
		if sum := exec.Distribution.Sum(); sum < 0.999 || sum > 1.001 {
			t.Errorf("distribution should sum to 1, got %v", sum)
		}
	})

	t.Run("Canceled_Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := gw.Run(ctx, circuit.CoinFlip(), shots); err == nil {
			t.Error("expected error for canceled context, got nil")
		}
	})
}
