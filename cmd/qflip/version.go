package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/qflip"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of qflip",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qflip version %s\n", strings.TrimSpace(qflip.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
