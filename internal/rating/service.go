package rating

import (
	"context"

	"bookshelf/internal/book"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Rate validates the input before touching storage, then sets userID's
// score on the book and returns the recomputed stats.
func (s *Service) Rate(ctx context.Context, bookID, userID string, score float64) (Stats, error) {
	if err := book.ValidateID(bookID); err != nil {
		return Stats{}, err
	}
	if err := ValidateScore(score); err != nil {
		return Stats{}, err
	}
	return s.repo.ApplyRating(ctx, bookID, userID, score)
}
