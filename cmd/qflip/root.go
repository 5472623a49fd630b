package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/qflip/internal/cli"
	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qflip",
	Short: "Compare a classical coin flip with a quantum one",
	Long: `qflip flips a pseudo-random coin and a one-qubit Hadamard circuit the same number
of times, prints both histograms and saves them as PNG charts.

The quantum half runs on a local statevector simulator, or on IBM Quantum
hardware with --real (the API token comes from QFLIP_IBM_TOKEN or a prompt).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")
		banner, _ := cmd.Flags().GetBool("banner")

		if banner && !quiet {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		ctx := cli.WithInterrupt(cmd.Context())
		defer ctx.Stop()

		_, err = cli.RunFlip(ctx, cli.FlipOptions{
			Config: cfg,
			Debug:  debug,
			Quiet:  quiet,
			In:     os.Stdin,
			Out:    cmd.OutOrStdout(),
			ErrOut: cmd.ErrOrStderr(),
		})
		return ctx.Wrap(err)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file (default "+config.DefaultFile+" when present)")
	pf.Bool("real", false, "Run on real IBM Quantum hardware")
	pf.String("output-dir", "", "Directory for histogram images (default results)")
	pf.Uint64("seed", 0, "Seed for the classical and simulated flips (0 = random)")
	pf.String("rounding", "", "Normalization of quantum results: truncate or largest-remainder")
	pf.String("store", "", "Run store: none, memory, file or redis")
	pf.Bool("debug", false, "Enable debug logging on stderr")
	pf.Bool("quiet", false, "Only print the results")

	rootCmd.Flags().Int("shots", 1000, "Number of shots")
	rootCmd.Flags().Bool("banner", false, "Print the banner before running")
}

// loadConfig layers flags that were set explicitly over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.WithFile(path))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("real") {
		cfg.Real, _ = flags.GetBool("real")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("rounding") {
		cfg.Rounding, _ = flags.GetString("rounding")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if f := flags.Lookup("shots"); f != nil && f.Changed {
		cfg.Shots, _ = flags.GetInt("shots")
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var errUsage = errors.New("invalid arguments")
