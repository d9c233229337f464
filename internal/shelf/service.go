package shelf

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

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add puts the book on the user's shelf. New entries always start as
// not_started and a repeat add leaves the existing status alone.
func (s *Service) Add(ctx context.Context, userID, bookID string) (Entry, error) {
	if err := book.ValidateID(bookID); err != nil {
		return Entry{}, err
	}
	return s.repo.UpsertEntry(ctx, userID, bookID, StatusNotStarted)
}

// UpdateStatus moves an entry to any status, including its current one,
// which only bumps the modification time.
func (s *Service) UpdateStatus(ctx context.Context, userID, bookID string, status Status) (Entry, error) {
	if err := book.ValidateID(bookID); err != nil {
		return Entry{}, err
	}
	if err := ValidateStatus(status); err != nil {
		return Entry{}, err
	}
	return s.repo.UpdateStatus(ctx, userID, bookID, status)
}

func (s *Service) Remove(ctx context.Context, userID, bookID string) (bool, error) {
	if err := book.ValidateID(bookID); err != nil {
		return false, err
	}
	return s.repo.Remove(ctx, userID, bookID)
}
