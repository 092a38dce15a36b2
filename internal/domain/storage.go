package domain

// RailStore caches rail contents for warm starts.
// Cached rails are always revalidated over the network.
type RailStore interface {
	GetRail(key string) ([]MediaSummary, bool)
	SaveRail(key string, items []MediaSummary) error

	InvalidateRail(key string)
	InvalidateAll()

	Close() error
}
