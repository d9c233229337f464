package shelf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/telemetry"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// entrySelect resolves shelf rows from relation se into entries with their
// book and its rating stats.
const entrySelect = `
	SELECT se.id::text, se.user_id, se.book_id::text, se.status, se.created_at, se.updated_at,
	       b.title, b.author, b.description, b.cover_image_url,
	       COALESCE(rs.rating_avg, 0)::float8, rs.rating_count,
	       b.created_at, b.updated_at
	FROM %s se
	JOIN books b ON b.id = se.book_id
	LEFT JOIN LATERAL (
		SELECT AVG(r.score) AS rating_avg, COUNT(*) AS rating_count
		FROM book_ratings r
		WHERE r.book_id = b.id
	) rs ON TRUE`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout, tracer: otel.Tracer("bookshelf/shelf")}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.UserID, &e.BookID, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		&e.Book.Title, &e.Book.Author, &e.Book.Description, &e.Book.CoverImageURL,
		&e.Book.RatingAvg, &e.Book.RatingCount,
		&e.Book.CreatedAt, &e.Book.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.Book.ID = e.BookID
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) (out []Entry, err error) {
	ctx, span := r.tracer.Start(ctx, "shelf.list")
	defer func() { telemetry.End(span, err) }()

	query := fmt.Sprintf(entrySelect, "shelf_entries") + `
	WHERE se.user_id = $1
	ORDER BY se.updated_at DESC, se.id ASC`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("list shelf failed")
		return nil, fmt.Errorf("list shelf: %w", err)
	}
	defer rows.Close()

	out = []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shelf entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertEntry inserts and resolves in one statement. The no-op DO UPDATE
// makes RETURNING yield the existing row on conflict without touching its
// status or timestamps. No row at all means the book does not exist.
func (r *PostgresRepo) UpsertEntry(ctx context.Context, userID, bookID string, defaultStatus Status) (e Entry, err error) {
	ctx, span := r.tracer.Start(ctx, "shelf.upsert", trace.WithAttributes(attribute.String("book.id", bookID)))
	defer func() { telemetry.End(span, err, book.ErrNotFound) }()

	query := `
	WITH upserted AS (
		INSERT INTO shelf_entries (id, user_id, book_id, status, created_at, updated_at)
		SELECT gen_random_uuid(), $1::text, b.id, $3::text, NOW(), NOW()
		FROM books b
		WHERE b.id = $2
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING *
	)` + fmt.Sprintf(entrySelect, "upserted")

	// A lost race surfaces as a unique violation; the winner's row is read
	// back, and if it vanished in between the insert is tried again.
	for attempt := 0; ; attempt++ {
		e, err = r.upsertOnce(ctx, query, userID, bookID, defaultStatus)
		if !errors.Is(err, ErrConflict) {
			return e, err
		}
		zerolog.Ctx(ctx).Debug().Str("book_id", bookID).Int("attempt", attempt).Msg("shelf insert raced")
		e, err = r.find(ctx, userID, bookID)
		if !errors.Is(err, pgx.ErrNoRows) {
			return e, err
		}
		if attempt+1 >= maxUpsertAttempts {
			return Entry{}, fmt.Errorf("upsert shelf entry after %d attempts: %w", maxUpsertAttempts, err)
		}
	}
}

const maxUpsertAttempts = 3

func (r *PostgresRepo) upsertOnce(ctx context.Context, query, userID, bookID string, defaultStatus Status) (Entry, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	e, err := scanEntry(r.db.QueryRow(timeoutCtx, query, userID, bookID, string(defaultStatus)))
	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, pgx.ErrNoRows):
		return Entry{}, book.ErrNotFound
	case isUniqueViolation(err):
		return Entry{}, ErrConflict
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("book_id", bookID).Msg("upsert shelf entry failed")
		return Entry{}, fmt.Errorf("upsert shelf entry: %w", err)
	}
}

func (r *PostgresRepo) find(ctx context.Context, userID, bookID string) (Entry, error) {
	query := fmt.Sprintf(entrySelect, "shelf_entries") + `
	WHERE se.user_id = $1 AND se.book_id = $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	e, err := scanEntry(r.db.QueryRow(timeoutCtx, query, userID, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("find shelf entry: %w", err)
	}
	return e, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, userID, bookID string, status Status) (e Entry, err error) {
	ctx, span := r.tracer.Start(ctx, "shelf.update_status", trace.WithAttributes(
		attribute.String("book.id", bookID),
		attribute.String("status", string(status)),
	))
	defer func() { telemetry.End(span, err, ErrNotFound) }()

	query := `
	WITH updated AS (
		UPDATE shelf_entries
		SET status = $3, updated_at = NOW()
		WHERE user_id = $1 AND book_id = $2
		RETURNING *
	)` + fmt.Sprintf(entrySelect, "updated")

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	e, err = scanEntry(r.db.QueryRow(timeoutCtx, query, userID, bookID, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("book_id", bookID).Msg("update shelf status failed")
		return Entry{}, fmt.Errorf("update shelf status: %w", err)
	}
	return e, nil
}

func (r *PostgresRepo) Remove(ctx context.Context, userID, bookID string) (removed bool, err error) {
	ctx, span := r.tracer.Start(ctx, "shelf.remove", trace.WithAttributes(attribute.String("book.id", bookID)))
	defer func() { telemetry.End(span, err) }()

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM shelf_entries WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("book_id", bookID).Msg("remove shelf entry failed")
		return false, fmt.Errorf("remove shelf entry: %w", err)
	}
	removed = tag.RowsAffected() > 0
	span.SetAttributes(attribute.Bool("removed", removed))
	return removed, nil
}
