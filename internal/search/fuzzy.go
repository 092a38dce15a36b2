package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
)

// LocalMatch is an already-loaded summary matching the typed text
type LocalMatch struct {
	Summary        domain.MediaSummary
	MatchedIndexes []int // Character positions that matched (for highlighting)
	Score          int
}

// summaryIndex implements sahilm/fuzzy.Source over lowercase titles
type summaryIndex struct {
	items       []domain.MediaSummary
	lowerTitles []string
}

func (idx *summaryIndex) String(i int) string { return idx.lowerTitles[i] }

func (idx *summaryIndex) Len() int { return len(idx.items) }

// MatchLocal ranks loaded summaries against query. Duplicate refs keep their
// first occurrence. Results are sorted best first.
func MatchLocal(query string, items []domain.MediaSummary, limit int) []LocalMatch {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(items) == 0 {
		return nil
	}

	idx := &summaryIndex{}
	seen := make(map[domain.MediaRef]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Ref]; dup {
			continue
		}
		seen[it.Ref] = struct{}{}
		idx.items = append(idx.items, it)
		idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(it.Title))
	}

	matches := fuzzy.FindFrom(query, idx)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]LocalMatch, len(matches))
	for i, m := range matches {
		out[i] = LocalMatch{
			Summary:        idx.items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// RankResults orders server results by title closeness to query. The sort is
// stable so equally close results keep the server's order.
func RankResults(query string, items []domain.MediaSummary) []domain.MediaSummary {
	if len(items) < 2 {
		return items
	}
	query = strings.ToLower(strings.TrimSpace(query))

	type rankedItem struct {
		item  domain.MediaSummary
		score int
	}
	ranked := make([]rankedItem, len(items))
	for i, it := range items {
		ranked[i] = rankedItem{item: it, score: matchScore(strings.ToLower(it.Title), query)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	out := make([]domain.MediaSummary, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}

// matchScore returns a ranking score; lower is better
func matchScore(title, query string) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	case lfuzzy.MatchFold(query, title):
		return 80
	default:
		return 100 + lfuzzy.LevenshteinDistance(query, title)
	}
}
