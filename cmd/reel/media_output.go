package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// progressWidth is the width of the progress bar cell, excluding the percentage
const progressWidth = 8

// mediaColumns lays out a catalog table; membership is read from s as rows render
func mediaColumns(s *session.Controller) []column[domain.MediaSummary] {
	return []column[domain.MediaSummary]{
		{header: "Type", value: func(m domain.MediaSummary) string { return m.Ref.Type.Label() }},
		{header: "ID", align: text.AlignRight, value: func(m domain.MediaSummary) string {
			return strconv.FormatInt(m.Ref.ID, 10)
		}},
		{header: "Title", widthMax: 40, value: func(m domain.MediaSummary) string { return m.Title }},
		{header: "Year", align: text.AlignRight, value: func(m domain.MediaSummary) string { return m.YearString() }},
		{header: "Rating", align: text.AlignRight, value: func(m domain.MediaSummary) string {
			if m.Rating <= 0 {
				return ""
			}
			return fmt.Sprintf("★ %.1f", m.Rating)
		}},
		{header: "Progress", value: func(m domain.MediaSummary) string {
			if m.Progress <= 0 {
				return ""
			}
			return fmt.Sprintf("%s %d%%", styles.RenderProgressBar(m.Progress, progressWidth), m.Progress)
		}},
		{header: "My List", align: text.AlignCenter, value: func(m domain.MediaSummary) string {
			if s.IsInList(m.Ref) {
				return styles.InListChar
			}
			return ""
		}},
	}
}

func printMediaTable(cmd *cobra.Command, s *session.Controller, items []domain.MediaSummary) {
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(mediaColumns(s), items))
}

func mediaJSONList(s *session.Controller, items []domain.MediaSummary) []mediaJSON {
	out := make([]mediaJSON, len(items))
	for i, item := range items {
		out[i] = toMediaJSON(item, s.IsInList(item.Ref), s.WatchURL(item.Ref))
	}
	return out
}
