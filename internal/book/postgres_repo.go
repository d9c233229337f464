package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/platform/telemetry"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var dialect = goqu.Dialect("postgres")

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout, tracer: otel.Tracer("bookshelf/book")}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// ratingStats aggregates book_ratings per book; books without ratings get
// no row and are coalesced to zero by the caller.
func ratingStats() *goqu.SelectDataset {
	return dialect.From("book_ratings").
		Select(
			goqu.C("book_id"),
			goqu.AVG("score").As("rating_avg"),
			goqu.COUNT(goqu.Star()).As("rating_count"),
		).
		GroupBy("book_id")
}

var (
	ratingAvgExpr   = goqu.COALESCE(goqu.I("rs.rating_avg"), goqu.L("0"))
	ratingCountExpr = goqu.COALESCE(goqu.I("rs.rating_count"), goqu.L("0"))
)

// viewSelect builds the common projection. With a caller it adds in_shelf,
// and with withUserRating the caller's own score.
func viewSelect(callerID string, withUserRating bool) *goqu.SelectDataset {
	cols := []any{
		goqu.Cast(goqu.I("b.id"), "TEXT").As("id"),
		goqu.I("b.title"),
		goqu.I("b.author"),
		goqu.I("b.description"),
		goqu.I("b.cover_image_url"),
		ratingAvgExpr.As("rating_avg"),
		ratingCountExpr.As("rating_count"),
		goqu.I("b.created_at"),
		goqu.I("b.updated_at"),
	}

	ds := dialect.From(goqu.T("books").As("b")).
		LeftJoin(ratingStats().As("rs"), goqu.On(goqu.I("rs.book_id").Eq(goqu.I("b.id"))))

	if callerID != "" {
		cols = append(cols, goqu.L(
			"EXISTS (SELECT 1 FROM shelf_entries se WHERE se.book_id = b.id AND se.user_id = ?)", callerID,
		).As("in_shelf"))
		if withUserRating {
			// (book_id, user_id) is unique, so the join adds at most one row.
			ds = ds.LeftJoin(goqu.T("book_ratings").As("ur"), goqu.On(
				goqu.I("ur.book_id").Eq(goqu.I("b.id")),
				goqu.I("ur.user_id").Eq(callerID),
			))
			cols = append(cols, goqu.I("ur.score").As("user_rating"))
		}
	}
	return ds.Select(cols...)
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildListQuery(q Query) (string, []any, error) {
	ds := viewSelect(q.CallerID, false)

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("b.title").ILike(pattern),
			goqu.I("b.author").ILike(pattern),
		))
	}

	switch q.Sort {
	case SortTitle:
		ds = ds.Order(goqu.I("b.title").Asc(), goqu.I("b.created_at").Desc(), goqu.I("b.id").Asc())
	case SortRating:
		ds = ds.Order(ratingAvgExpr.Desc(), ratingCountExpr.Desc(), goqu.I("b.created_at").Desc(), goqu.I("b.id").Asc())
	case SortDate, "":
		ds = ds.Order(goqu.I("b.created_at").Desc(), goqu.I("b.id").Asc())
	default:
		return "", nil, ErrInvalidSort
	}

	return ds.Prepared(true).ToSQL()
}

func buildGetQuery(id, callerID string) (string, []any, error) {
	return viewSelect(callerID, true).
		Where(goqu.I("b.id").Eq(id)).
		Limit(1).
		Prepared(true).
		ToSQL()
}

func scanView(row pgx.Row, callerID string, withUserRating bool) (View, error) {
	var v View
	var inShelf bool
	dest := []any{
		&v.ID, &v.Title, &v.Author, &v.Description, &v.CoverImageURL,
		&v.RatingAvg, &v.RatingCount, &v.CreatedAt, &v.UpdatedAt,
	}
	if callerID != "" {
		dest = append(dest, &inShelf)
		if withUserRating {
			dest = append(dest, &v.UserRating)
		}
	}
	if err := row.Scan(dest...); err != nil {
		return View{}, err
	}
	if callerID != "" {
		v.InShelf = &inShelf
	}
	return v, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) (out []View, err error) {
	ctx, span := r.tracer.Start(ctx, "book.list", trace.WithAttributes(
		attribute.String("sort", string(q.Sort)),
		attribute.Bool("caller", q.CallerID != ""),
	))
	defer func() { telemetry.End(span, err) }()

	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("sort", string(q.Sort)).Msg("list books failed")
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out = []View{}
	for rows.Next() {
		v, err := scanView(rows, q.CallerID, false)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id, callerID string) (v View, err error) {
	ctx, span := r.tracer.Start(ctx, "book.get", trace.WithAttributes(attribute.String("book.id", id)))
	defer func() { telemetry.End(span, err, ErrNotFound) }()

	query, args, err := buildGetQuery(id, callerID)
	if err != nil {
		return View{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	v, err = scanView(r.db.QueryRow(timeoutCtx, query, args...), callerID, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, ErrNotFound
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("book_id", id).Msg("get book failed")
		return View{}, fmt.Errorf("get book: %w", err)
	}
	return v, nil
}

func (r *PostgresRepo) Create(ctx context.Context, nb NewBook) (v View, err error) {
	ctx, span := r.tracer.Start(ctx, "book.create")
	defer func() { telemetry.End(span, err) }()

	const insertSQL = `
		INSERT INTO books (id, title, author, description, cover_image_url, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	var createdBy *string
	if nb.CreatedBy != "" {
		createdBy = &nb.CreatedBy
	}

	v = View{
		ID:            uuid.NewString(),
		Title:         nb.Title,
		Author:        nb.Author,
		Description:   nb.Description,
		CoverImageURL: nb.CoverImageURL,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err = r.db.QueryRow(timeoutCtx, insertSQL,
		v.ID, v.Title, v.Author, v.Description, v.CoverImageURL, createdBy,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create book failed")
		return View{}, fmt.Errorf("create book: %w", err)
	}
	span.SetAttributes(attribute.String("book.id", v.ID))
	return v, nil
}
