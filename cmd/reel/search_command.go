package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var typeFlag string
	var filter domain.Filter

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title",
		Long: "Search the catalog by title. Narrowing by type, year or genre id\n" +
			"switches to the assistant search.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if typeFlag != "" {
				typ, err := domain.ParseMediaType(typeFlag)
				if err != nil {
					return err
				}
				filter.Type = typ
			}
			if filter.Year < 0 || filter.Genre < 0 {
				return errors.New("--year and --genre must be positive")
			}
			return ctx.withSession(func(d sessionDeps) error {
				s := d.session
				s.OpenSearch()
				defer s.DismissSearch()
				s.SetSearchFilter(filter)

				sched, ok := s.SearchInput(text)
				if !ok {
					return errors.New(s.SearchState().Message)
				}
				// No typing to debounce; fire right away
				q, ok := s.FireSearch(sched.Gen)
				if !ok {
					return fmt.Errorf("search for %q was superseded", text)
				}
				results, err := s.RunSearch(q)
				s.ApplySearch(q, results, err)
				if err != nil {
					return fmt.Errorf("search %q: %w", q.Text, err)
				}

				st := s.SearchState()
				if asJSON {
					return writeJSON(cmd, mediaJSONList(s, st.Results))
				}
				if st.Status != search.Results || len(st.Results) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", q.Text)
					return nil
				}
				printMediaTable(cmd, s, st.Results)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Only movie or tv results")
	cmd.Flags().IntVarP(&filter.Year, "year", "y", 0, "Only results from this year")
	cmd.Flags().IntVarP(&filter.Genre, "genre", "g", 0, "Only results with this genre id")
	return cmd
}
