package main

import (
	"context"

	"github.com/spf13/cobra"

	"personasim/internal/persona"
)

func relationsCmd() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "relations",
		Short: "List relationship scores between personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			rels := a.state.Relationships()
			if ref != "" {
				p, err := a.state.FindPersona(ref)
				if err != nil {
					return err
				}
				filtered := make([]*persona.Relationship, 0, len(rels))
				for _, rel := range rels {
					if rel.Key().Has(p.ID) {
						filtered = append(filtered, rel)
					}
				}
				rels = filtered
			}
			a.renderer(cmd).Relationships(rels, a.personaNames())
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "persona", "", "Only relationships involving this persona")
	return cmd
}
