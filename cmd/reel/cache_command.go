package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/adapter"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rail cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached rail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := adapter.ClearCache(cfg.Cache.Dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rail cache cleared")
			return nil
		},
	})

	return cacheCmd
}
