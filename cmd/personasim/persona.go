package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"personasim/internal/config"
	"personasim/internal/persona"
)

func personaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Create, inspect and delete personas",
	}
	cmd.AddCommand(personaCreateCmd())
	cmd.AddCommand(personaListCmd())
	cmd.AddCommand(personaShowCmd())
	cmd.AddCommand(personaDeleteCmd())
	cmd.AddCommand(personaImportCmd())
	return cmd
}

func personaCreateCmd() *cobra.Command {
	var (
		name, avatar, color, style string
		traits                     = persona.DefaultTraits()
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a persona",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := persona.Spec{
				Name:   name,
				Color:  color,
				Style:  persona.CommunicationStyle(style),
				Traits: traits,
			}
			if avatar != "" {
				a, ok := persona.LookupAvatar(avatar)
				if !ok {
					return fmt.Errorf("unknown avatar: %q", avatar)
				}
				spec.Avatar = a.Glyph
			}
			if err := spec.Traits.Validate(); err != nil {
				return err
			}
			return runPersonaCreate(cmd, spec)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar glyph or name")
	cmd.Flags().StringVar(&color, "color", "", "Color tag (defaults to the avatar's)")
	cmd.Flags().StringVar(&style, "style", string(persona.StyleCasual), "Communication style")
	cmd.Flags().IntVar(&traits.Creativity, "creativity", traits.Creativity, "Creativity trait (0-100)")
	cmd.Flags().IntVar(&traits.Logic, "logic", traits.Logic, "Logic trait (0-100)")
	cmd.Flags().IntVar(&traits.Empathy, "empathy", traits.Empathy, "Empathy trait (0-100)")
	cmd.Flags().IntVar(&traits.Curiosity, "curiosity", traits.Curiosity, "Curiosity trait (0-100)")
	cmd.Flags().IntVar(&traits.MoodVolatility, "volatility", traits.MoodVolatility, "Mood volatility trait (0-100)")
	return cmd
}

func runPersonaCreate(cmd *cobra.Command, spec persona.Spec) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	p, err := persona.New(spec, time.Now())
	if err != nil {
		return err
	}
	if err := a.state.AddPersona(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", p.Avatar, p.Name, p.ID)
	return nil
}

func personaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			a.renderer(cmd).Personas(a.state.Personas())
			return nil
		},
	}
}

func personaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Show a persona with traits, mood history and relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			p, err := a.state.FindPersona(args[0])
			if err != nil {
				return err
			}
			var rels []*persona.Relationship
			for _, rel := range a.state.Relationships() {
				if rel.Key().Has(p.ID) {
					rels = append(rels, rel)
				}
			}
			a.renderer(cmd).PersonaDetail(p, rels, a.personaNames())
			return nil
		},
	}
}

func personaDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			p, err := a.state.FindPersona(args[0])
			if err != nil {
				return err
			}
			if err := a.state.RemovePersona(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func personaImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Create every persona listed in a roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := config.LoadRoster(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			now := time.Now()
			for i, entry := range roster.Personas {
				// Offset creation times so the roster order survives listing.
				p, err := persona.New(entry.Spec(), now.Add(time.Duration(i)*time.Millisecond))
				if err != nil {
					return fmt.Errorf("persona %s: %w", entry.Name, err)
				}
				if err := a.state.AddPersona(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", p.Avatar, p.Name, p.ID)
			}
			return nil
		},
	}
}
