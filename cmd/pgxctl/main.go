package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pgxctl",
		Short:        "Operate the pharmacogenomic reference store and run interpretations",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to the configuration file")
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(validateSeedCmd())
	root.AddCommand(interpretCmd())
	root.AddCommand(versionCmd())
	return root
}
