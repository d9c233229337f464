package rating

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=rating

// Repository applies ratings atomically. ApplyRating returns book.ErrNotFound
// when the book does not exist, and the stats after the write otherwise.
type Repository interface {
	ApplyRating(ctx context.Context, bookID, userID string, score float64) (Stats, error)
}
