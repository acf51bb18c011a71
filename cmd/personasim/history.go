package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"personasim/internal/persona"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved conversations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			a.renderer(cmd).Conversations(a.state.Conversations())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			conv := a.state.Conversation(args[0])
			if conv == nil {
				return fmt.Errorf("conversation not found: %s", args[0])
			}
			authors := map[string]*persona.Persona{}
			for _, id := range conv.Participants {
				if p := a.state.Persona(id); p != nil {
					authors[id] = p
				}
			}
			a.renderer(cmd).Conversation(conv, authors)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search saved transcripts",
		Long:  `Search saved transcripts. Terms are ANDed; use "quoted phrases", -exclude, OR and prefix*.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			hits, err := a.state.SearchMessages(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.renderer(cmd).SearchHits(hits, a.personaNames())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if a.state.Conversation(args[0]) == nil {
				return fmt.Errorf("conversation not found: %s", args[0])
			}
			if err := a.state.RemoveConversation(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}
