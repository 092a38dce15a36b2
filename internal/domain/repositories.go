package domain

import (
	"context"
)

// CatalogRepository provides read access to the remote media catalog
type CatalogRepository interface {
	// Details returns the full record for an item
	Details(ctx context.Context, ref MediaRef) (*MediaDetail, error)

	// Trailer returns the trailer for an item, or ErrNotFound when it has none
	Trailer(ctx context.Context, ref MediaRef) (*TrailerRef, error)

	// Search performs a catalog-wide title search
	Search(ctx context.Context, query string) ([]MediaSummary, error)

	// SearchFiltered performs a search narrowed by type, genre and year
	SearchFiltered(ctx context.Context, query string, f Filter) ([]MediaSummary, error)

	// Rail loads one catalog collection
	Rail(ctx context.Context, q RailQuery) ([]MediaSummary, error)

	// Genres lists the genres available to discover filters for a type
	Genres(ctx context.Context, typ MediaType) ([]Genre, error)

	// Random returns a random pick from the catalog
	Random(ctx context.Context) (*MediaSummary, error)
}

// ListRepository mutates the user's watch-list
type ListRepository interface {
	AddToList(ctx context.Context, entry ListEntry) error
	RemoveFromList(ctx context.Context, ref MediaRef) error
}
