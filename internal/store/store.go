// Package store assembles the repositories behind the book, rating and shelf
// services, backed either by Postgres or by process memory.
package store

import (
	"context"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/rating"
	"bookshelf/internal/shelf"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Books   book.Repository
	Ratings rating.Repository
	Shelf   shelf.Repository
	// Ping reports whether the backing store can serve requests.
	Ping func(ctx context.Context) error
}

func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) Repositories {
	return Repositories{
		Books:   book.NewPostgresRepo(pool, timeout),
		Ratings: rating.NewPostgresRepo(pool, timeout),
		Shelf:   shelf.NewPostgresRepo(pool, timeout),
		Ping:    pool.Ping,
	}
}

func NewInMemory(opts ...MemoryOption) Repositories {
	m := NewMemory(opts...)
	return Repositories{
		Books:   m,
		Ratings: m,
		Shelf:   m,
		Ping:    func(context.Context) error { return nil },
	}
}
