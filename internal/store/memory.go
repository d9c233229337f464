package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/rating"
	"bookshelf/internal/shelf"

	"github.com/google/uuid"
)

type shelfKey struct {
	userID string
	bookID string
}

type shelfRow struct {
	id        string
	status    shelf.Status
	createdAt time.Time
	updatedAt time.Time
}

// Memory keeps books, ratings and shelf entries in maps. Every mutation runs
// under the write lock, so same-key writers serialize the way row locks make
// them serialize in Postgres.
type Memory struct {
	mu    sync.RWMutex
	books map[string]*book.Book
	shelf map[shelfKey]*shelfRow

	now   func() time.Time
	newID func() string
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithIDs replaces uuid.NewString for new records.
func WithIDs(newID func() string) MemoryOption {
	return func(m *Memory) { m.newID = newID }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		books: make(map[string]*book.Book),
		shelf: make(map[shelfKey]*shelfRow),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// view must be called with at least the read lock held.
func (m *Memory) view(b *book.Book, callerID string, withUserRating bool) book.View {
	stats := rating.ComputeStats(b.Ratings)
	v := book.View{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		CoverImageURL: b.CoverImageURL,
		RatingAvg:     stats.Avg,
		RatingCount:   stats.Count,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if callerID == "" {
		return v
	}
	_, inShelf := m.shelf[shelfKey{userID: callerID, bookID: b.ID}]
	v.InShelf = &inShelf
	if withUserRating {
		for _, r := range b.Ratings {
			if r.UserID == callerID {
				score := r.Score
				v.UserRating = &score
				break
			}
		}
	}
	return v
}

func (m *Memory) List(_ context.Context, q book.Query) ([]book.View, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []book.View{}
	for _, b := range m.books {
		if book.MatchesSearch(q.Search, b.Title, b.Author) {
			out = append(out, m.view(b, q.CallerID, false))
		}
	}
	book.SortViews(out, q.Sort)
	return out, nil
}

func (m *Memory) GetByID(_ context.Context, id, callerID string) (book.View, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[strings.ToLower(id)]
	if !ok {
		return book.View{}, book.ErrNotFound
	}
	return m.view(b, callerID, true), nil
}

func (m *Memory) Create(_ context.Context, nb book.NewBook) (book.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b := &book.Book{
		ID:            strings.ToLower(m.newID()),
		Title:         nb.Title,
		Author:        nb.Author,
		Description:   nb.Description,
		CoverImageURL: nb.CoverImageURL,
		CreatedBy:     nb.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.books[b.ID] = b
	return m.view(b, "", false), nil
}

func (m *Memory) ApplyRating(_ context.Context, bookID, userID string, score float64) (rating.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[strings.ToLower(bookID)]
	if !ok {
		return rating.Stats{}, book.ErrNotFound
	}
	b.Ratings = rating.Apply(b.Ratings, userID, score, m.newID)
	b.UpdatedAt = m.now()
	return rating.ComputeStats(b.Ratings), nil
}

// entry must be called with at least the read lock held.
func (m *Memory) entry(key shelfKey, row *shelfRow) shelf.Entry {
	return shelf.Entry{
		ID:        row.id,
		UserID:    key.userID,
		BookID:    key.bookID,
		Status:    row.status,
		Book:      m.view(m.books[key.bookID], "", false),
		CreatedAt: row.createdAt,
		UpdatedAt: row.updatedAt,
	}
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]shelf.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []shelf.Entry{}
	for key, row := range m.shelf {
		if key.userID == userID {
			out = append(out, m.entry(key, row))
		}
	}
	slices.SortFunc(out, func(a, b shelf.Entry) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) UpsertEntry(_ context.Context, userID, bookID string, defaultStatus shelf.Status) (shelf.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bookID = strings.ToLower(bookID)
	if _, ok := m.books[bookID]; !ok {
		return shelf.Entry{}, book.ErrNotFound
	}
	key := shelfKey{userID: userID, bookID: bookID}
	row, ok := m.shelf[key]
	if !ok {
		now := m.now()
		row = &shelfRow{id: m.newID(), status: defaultStatus, createdAt: now, updatedAt: now}
		m.shelf[key] = row
	}
	return m.entry(key, row), nil
}

func (m *Memory) UpdateStatus(_ context.Context, userID, bookID string, status shelf.Status) (shelf.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := shelfKey{userID: userID, bookID: strings.ToLower(bookID)}
	row, ok := m.shelf[key]
	if !ok {
		return shelf.Entry{}, shelf.ErrNotFound
	}
	row.status = status
	row.updatedAt = m.now()
	return m.entry(key, row), nil
}

func (m *Memory) Remove(_ context.Context, userID, bookID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := shelfKey{userID: userID, bookID: strings.ToLower(bookID)}
	if _, ok := m.shelf[key]; !ok {
		return false, nil
	}
	delete(m.shelf, key)
	return true, nil
}

var (
	_ book.Repository   = (*Memory)(nil)
	_ rating.Repository = (*Memory)(nil)
	_ shelf.Repository  = (*Memory)(nil)
)
