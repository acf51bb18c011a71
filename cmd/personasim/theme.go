package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"personasim/internal/persona"
)

func themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the console theme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the active theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			fmt.Fprintln(cmd.OutOrStdout(), a.state.Theme())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set <theme>",
		Short:     "Change the theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: themeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			return a.state.SetTheme(ctx, persona.Theme(args[0]))
		},
	})
	return cmd
}

func themeNames() []string {
	names := make([]string, len(persona.Themes))
	for i, t := range persona.Themes {
		names[i] = string(t)
	}
	return names
}
