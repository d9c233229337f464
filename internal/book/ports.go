package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]View, error)
	GetByID(ctx context.Context, id, callerID string) (View, error)
	Create(ctx context.Context, nb NewBook) (View, error)
}
