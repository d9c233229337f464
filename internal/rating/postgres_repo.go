package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/telemetry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout, tracer: otel.Tracer("bookshelf/rating")}
}

// ApplyRating runs in one transaction. Touching the book row first takes its
// row lock, so concurrent raters of the same book are serialized and the
// stats read at the end include every committed score.
func (repo *PostgresRepo) ApplyRating(ctx context.Context, bookID, userID string, score float64) (stats Stats, err error) {
	ctx, span := repo.tracer.Start(ctx, "rating.apply", trace.WithAttributes(
		attribute.String("book.id", bookID),
		attribute.Float64("score", score),
	))
	defer func() { telemetry.End(span, err, book.ErrNotFound) }()

	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	err = pgx.BeginFunc(ctx, repo.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE books SET updated_at = NOW() WHERE id = $1`, bookID)
		if err != nil {
			return fmt.Errorf("touch book: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return book.ErrNotFound
		}

		upsertSQL := `
			INSERT INTO book_ratings (book_id, user_id, score, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (book_id, user_id)
			DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()`
		if _, err := tx.Exec(ctx, upsertSQL, bookID, userID, score); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		statsSQL := `
			SELECT COALESCE(AVG(score), 0)::float8, COUNT(*)
			FROM book_ratings
			WHERE book_id = $1`
		if err := tx.QueryRow(ctx, statsSQL, bookID).Scan(&stats.Avg, &stats.Count); err != nil {
			return fmt.Errorf("rating stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, book.ErrNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Str("book_id", bookID).Msg("apply rating failed")
		}
		return Stats{}, err
	}
	return stats, nil
}
