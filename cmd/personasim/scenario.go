package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"personasim/internal/render"
	"personasim/internal/scenario"
)

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Browse the scenario catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scenario.NewCatalog()
			if err != nil {
				return err
			}
			render.New(cmd.OutOrStdout(), "").Scenarios(catalog.All())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a scenario and its prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scenario.NewCatalog()
			if err != nil {
				return err
			}
			sc := catalog.Get(args[0])
			if sc == nil {
				return fmt.Errorf("unknown scenario: %s", args[0])
			}
			render.New(cmd.OutOrStdout(), "").ScenarioDetail(sc)
			return nil
		},
	})
	return cmd
}
