package main

import (
	"fmt"

	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/spf13/cobra"
)

var circuitCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Print the coin-flip circuit",
	Long:  `Prints the one-qubit coin-flip circuit as a text diagram, or as OpenQASM with --qasm 2|3.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetInt("qasm")
		c := circuit.CoinFlip()

		out := cmd.OutOrStdout()
		switch version {
		case 0:
			fmt.Fprintln(out, c.Draw())
		case 2:
			fmt.Fprint(out, c.QASM2())
		case 3:
			fmt.Fprint(out, c.QASM3())
		default:
			return fmt.Errorf("%w: --qasm must be 2 or 3, got %d", errUsage, version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(circuitCmd)
	circuitCmd.Flags().Int("qasm", 0, "Print OpenQASM of the given version (2 or 3) instead of the diagram")
}
