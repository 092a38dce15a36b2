package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRandomCommand(ctx *commandContext) *cobra.Command {
	var open bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick something random to watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(d sessionDeps) error {
				rctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()

				pick, err := d.session.Random(rctx)
				if err != nil {
					return fmt.Errorf("random pick: %w", err)
				}
				url := d.session.WatchURL(pick.Ref)

				if asJSON {
					if err := writeJSON(cmd, toMediaJSON(*pick, d.session.IsInList(pick.Ref), url)); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					title := pick.Title
					if year := pick.YearString(); year != "" {
						title += " (" + year + ")"
					}
					fmt.Fprintf(out, "%s  [%s %s]\n", title, pick.Ref.Type.Label(), pick.Ref.Key())
					if pick.Overview != "" {
						fmt.Fprintln(out, pick.Overview)
					}
					fmt.Fprintln(out, url)
				}

				if open {
					if err := d.launcher.OpenWatch(url); err != nil {
						return fmt.Errorf("open %s: %w", url, err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&open, "open", "o", false, "Open the watch page in the browser")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the pick as JSON")
	return cmd
}
