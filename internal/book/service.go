package book

import (
	"context"
	"strings"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the books matching the query.
func (s *Service) List(ctx context.Context, q Query) ([]View, error) {
	sort, err := ParseSort(string(q.Sort))
	if err != nil {
		return nil, err
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Sort = sort
	return s.repo.List(ctx, q)
}

// GetByID returns a single book. callerID may be empty.
func (s *Service) GetByID(ctx context.Context, id, callerID string) (View, error) {
	if err := ValidateID(id); err != nil {
		return View{}, err
	}
	return s.repo.GetByID(ctx, id, callerID)
}

// Create catalogues a new book.
func (s *Service) Create(ctx context.Context, nb NewBook) (View, error) {
	nb, err := nb.Normalize()
	if err != nil {
		return View{}, err
	}
	return s.repo.Create(ctx, nb)
}
