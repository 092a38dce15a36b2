package catalog

import (
	"github.com/mmcdole/reel/internal/domain"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapSummary converts a card to a domain summary
func mapSummary(dto SummaryDTO) domain.MediaSummary {
	id := dto.TmdbID
	if id == 0 {
		id = dto.ID
	}

	year := int(dto.Year)
	if year == 0 {
		year = parseYear(dto.ReleaseDate)
	}
	if year == 0 {
		year = parseYear(dto.Date)
	}

	rating := dto.VoteAverage
	if rating == 0 {
		rating = dto.Vote
	}

	progress := dto.Progress
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	return domain.MediaSummary{
		Ref:       domain.MediaRef{ID: id, Type: domain.MediaTypeOrDefault(dto.MediaType)},
		Title:     dto.Title,
		Year:      year,
		PosterURL: derefString(dto.PosterURL),
		Rating:    rating,
		Overview:  dto.Overview,
		Progress:  progress,
	}
}

// mapSummaries converts cards, dropping entries without an id
func mapSummaries(dtos []SummaryDTO) []domain.MediaSummary {
	items := make([]domain.MediaSummary, 0, len(dtos))
	for _, dto := range dtos {
		s := mapSummary(dto)
		if s.Ref.ID == 0 {
			continue
		}
		items = append(items, s)
	}
	return items
}

// mapDetail converts a detail payload. The requested ref wins over the
// echoed one so the overlay target stays stable.
func mapDetail(ref domain.MediaRef, dto DetailDTO) *domain.MediaDetail {
	genres := make([]string, 0, len(dto.Genres))
	for _, g := range dto.Genres {
		if g != "" {
			genres = append(genres, g)
		}
	}
	return &domain.MediaDetail{
		Ref:       ref,
		Title:     dto.Title,
		Overview:  dto.Overview,
		Genres:    genres,
		PosterURL: derefString(dto.PosterURL),
		Year:      parseYear(derefString(dto.ReleaseDate)),
	}
}

// mapGenres drops unnamed genres and keeps server order
func mapGenres(dtos []GenreDTO) []domain.Genre {
	genres := make([]domain.Genre, 0, len(dtos))
	for _, g := range dtos {
		if g.ID <= 0 || g.Name == "" {
			continue
		}
		genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return genres
}
