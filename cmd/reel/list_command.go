package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show My List",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(d sessionDeps) error {
				items, err := d.session.LoadRail(d.session.RailQuery(domain.RailMyList, ""))
				if err != nil {
					return fmt.Errorf("load my list: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, mediaJSONList(d.session, items))
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "My List is empty")
					return nil
				}
				printMediaTable(cmd, d.session, items)
				return nil
			})
		},
	}

	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output My List as JSON")
	listCmd.AddCommand(newListToggleCommand(ctx))
	return listCmd
}

func newListToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <type/id>",
		Short: "Add an item to My List, or remove it if already present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return ctx.withSession(func(d sessionDeps) error {
				s := d.session
				// Seed membership so the toggle knows which way to go
				items, err := s.LoadRail(s.RailQuery(domain.RailMyList, ""))
				if err != nil {
					return fmt.Errorf("load my list: %w", err)
				}

				entry := listEntryFor(s, ref, items)
				inList, err := s.Toggle(ref, entry)
				if err != nil {
					return fmt.Errorf("update my list: %w", err)
				}

				title := entry.Title
				if title == "" {
					title = ref.Key()
				}
				if inList {
					fmt.Fprintf(cmd.OutOrStdout(), "Added to My List: %s\n", title)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed from My List: %s\n", title)
				}
				return nil
			})
		},
	}
}

// listEntryFor finds the title and poster of ref, from My List when present
// and otherwise from its detail record
func listEntryFor(s *session.Controller, ref domain.MediaRef, myList []domain.MediaSummary) domain.ListEntry {
	for _, item := range myList {
		if item.Ref == ref {
			return item.ListEntry()
		}
	}
	fx := s.OpenDetail(ref, "")
	defer s.CloseOverlay()
	detail, err := s.FetchDetail(fx)
	s.ApplyDetail(fx, detail, err)
	if err != nil || detail == nil {
		return domain.ListEntry{Ref: ref}
	}
	return detail.ListEntry()
}
