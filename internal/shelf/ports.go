package shelf

import (
	"context"
)

// Repository stores shelf entries keyed by (userID, bookID).
type Repository interface {
	// ListByUser returns the user's entries, most recently modified first.
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
	// UpsertEntry creates the entry with defaultStatus, or returns the
	// existing one untouched. It returns book.ErrNotFound for an unknown book.
	UpsertEntry(ctx context.Context, userID, bookID string, defaultStatus Status) (Entry, error)
	// UpdateStatus returns ErrNotFound when the user has no entry for the book.
	UpdateStatus(ctx context.Context, userID, bookID string, status Status) (Entry, error)
	// Remove reports whether an entry existed and was deleted.
	Remove(ctx context.Context, userID, bookID string) (bool, error)
}
