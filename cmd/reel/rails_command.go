package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
)

// maxRailLoads bounds concurrent rail requests
const maxRailLoads = 4

type railResult struct {
	query  domain.RailQuery
	items  []domain.MediaSummary
	err    error
	hidden bool // Loaded only to seed membership
}

func newRailsCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var asJSON bool
	var discover domain.Filter

	cmd := &cobra.Command{
		Use:   "rails [rail...]",
		Short: "Print catalog rails",
		Long: "Print catalog rails. Without arguments every rail is loaded.\n" +
			"Rails: " + railNames() + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			rails, err := parseRails(args)
			if err != nil {
				return err
			}
			var typ domain.MediaType
			if typeFlag != "" {
				if typ, err = domain.ParseMediaType(typeFlag); err != nil {
					return err
				}
			}
			if discover.Genre < 0 || discover.Year < 0 {
				return errors.New("--genre and --year must be positive")
			}

			return ctx.withSession(func(d sessionDeps) error {
				results := loadRails(d.session, rails, typ, discover)
				if asJSON {
					return writeRailsJSON(cmd, d.session, results)
				}
				return printRails(cmd, d.session, results)
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Restrict typed rails to movie or tv (top and discover default to movie)")
	cmd.Flags().IntVarP(&discover.Genre, "genre", "g", 0, "Genre id for the discover rail")
	cmd.Flags().IntVarP(&discover.Year, "year", "y", 0, "Release year for the discover rail")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output rails as JSON")
	return cmd
}

func railNames() string {
	names := make([]string, len(domain.AllRails))
	for i, r := range domain.AllRails {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func parseRails(args []string) ([]domain.Rail, error) {
	if len(args) == 0 {
		return domain.AllRails, nil
	}
	rails := make([]domain.Rail, 0, len(args))
	for _, arg := range args {
		r, ok := domain.ParseRail(strings.TrimSpace(arg))
		if !ok {
			return nil, fmt.Errorf("unknown rail %q (expected one of %s)", arg, railNames())
		}
		rails = append(rails, r)
	}
	return rails, nil
}

// loadRails loads rails concurrently. My List is always loaded so the
// membership column is accurate.
func loadRails(s *session.Controller, rails []domain.Rail, typ domain.MediaType, discover domain.Filter) []railResult {
	results := make([]railResult, 0, len(rails)+1)
	seen := make(map[string]bool)
	for _, r := range rails {
		q := s.RailQuery(r, typ)
		if r == domain.RailDiscover {
			q = s.DiscoverQuery(typ, discover)
		}
		if seen[q.Key()] {
			continue
		}
		seen[q.Key()] = true
		results = append(results, railResult{query: q})
	}
	if myList := s.RailQuery(domain.RailMyList, ""); !seen[myList.Key()] {
		results = append(results, railResult{query: myList, hidden: true})
	}

	p := pool.New().WithMaxGoroutines(maxRailLoads)
	for i := range results {
		i := i
		p.Go(func() {
			results[i].items, results[i].err = s.LoadRail(results[i].query)
		})
	}
	p.Wait()

	return results
}

func printRails(cmd *cobra.Command, s *session.Controller, results []railResult) error {
	out := cmd.OutOrStdout()
	var errs []error
	for _, res := range results {
		if res.hidden {
			continue
		}
		fmt.Fprintf(out, "%s\n", res.query.Rail.Title())
		switch {
		case res.err != nil:
			fmt.Fprintf(out, "  failed: %v\n\n", res.err)
			errs = append(errs, fmt.Errorf("%s: %w", res.query.Rail, res.err))
		case len(res.items) == 0:
			fmt.Fprint(out, "  (empty)\n\n")
		default:
			printMediaTable(cmd, s, res.items)
			fmt.Fprintln(out)
		}
	}
	return errors.Join(errs...)
}

func writeRailsJSON(cmd *cobra.Command, s *session.Controller, results []railResult) error {
	type railJSON struct {
		Rail  string      `json:"rail"`
		Title string      `json:"title"`
		Items []mediaJSON `json:"items"`
		Error string      `json:"error,omitempty"`
	}
	payload := make([]railJSON, 0, len(results))
	for _, res := range results {
		if res.hidden {
			continue
		}
		entry := railJSON{
			Rail:  string(res.query.Rail),
			Title: res.query.Rail.Title(),
			Items: mediaJSONList(s, res.items),
		}
		if res.err != nil {
			entry.Error = res.err.Error()
		}
		payload = append(payload, entry)
	}
	return writeJSON(cmd, payload)
}
