package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/domain"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// mediaJSON is the scripted form of a catalog item
type mediaJSON struct {
	Ref       string  `json:"ref"`
	Type      string  `json:"type"`
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Year      int     `json:"year,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Progress  int     `json:"progress,omitempty"`
	PosterURL string  `json:"poster_url,omitempty"`
	InList    bool    `json:"in_list"`
	WatchURL  string  `json:"watch_url"`
}

func toMediaJSON(item domain.MediaSummary, inList bool, watchURL string) mediaJSON {
	return mediaJSON{
		Ref:       item.Ref.Key(),
		Type:      string(item.Ref.Type),
		ID:        item.Ref.ID,
		Title:     item.Title,
		Year:      item.Year,
		Rating:    item.Rating,
		Progress:  item.Progress,
		PosterURL: item.PosterURL,
		InList:    inList,
		WatchURL:  watchURL,
	}
}
