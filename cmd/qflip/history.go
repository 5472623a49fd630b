package main

import (
	"github.com/aretw0/qflip/internal/cli"
	"github.com/aretw0/qflip/internal/config"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List stored runs or show one of them",
	Long: `Reads runs from the configured store. Without --store, the file store under
<output-dir>/runs is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Store == config.StoreNone {
			cfg.Store = config.StoreFile
		}

		store, closeStore, err := cli.NewStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		var id string
		if len(args) == 1 {
			id = args[0]
		}
		return cli.ShowHistory(cmd.Context(), store, id, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
