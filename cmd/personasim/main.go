package main

import (
	"os"

	"github.com/spf13/cobra"

	"personasim/internal/config"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "personasim",
		Short:        "Simulate conversations between AI personas",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the project config")
	root.AddCommand(initCmd())
	root.AddCommand(personaCmd())
	root.AddCommand(scenarioCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(relationsCmd())
	root.AddCommand(themeCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(sqlCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	return root
}
