package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/rating"
	"bookshelf/internal/shelf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type services struct {
	books   *book.Service
	ratings *rating.Service
	shelf   *shelf.Service
}

func newServices(repos Repositories) services {
	return services{
		books:   book.NewService(repos.Books),
		ratings: rating.NewService(repos.Ratings),
		shelf:   shelf.NewService(repos.Shelf),
	}
}

// runScenario walks the catalogue, rating and shelf flow end to end against
// any Repositories implementation.
func runScenario(t *testing.T, repos Repositories) {
	t.Helper()
	ctx := context.Background()
	svc := newServices(repos)
	user1 := "u1-" + time.Now().Format("150405.000000000")
	user2 := "u2-" + time.Now().Format("150405.000000000")

	dune, err := svc.books.Create(ctx, book.NewBook{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)

	found, err := svc.books.List(ctx, book.Query{Search: "Dune"})
	require.NoError(t, err)
	var listed *book.View
	for i := range found {
		if found[i].ID == dune.ID {
			listed = &found[i]
		}
	}
	require.NotNil(t, listed)
	assert.Equal(t, 0.0, listed.RatingAvg)
	assert.Equal(t, 0, listed.RatingCount)
	assert.Nil(t, listed.InShelf)

	_, err = svc.ratings.Rate(ctx, dune.ID, user1, 4)
	require.NoError(t, err)
	stats, err := svc.ratings.Rate(ctx, dune.ID, user2, 5)
	require.NoError(t, err)
	assert.Equal(t, rating.Stats{Avg: 4.5, Count: 2}, stats)

	got, err := svc.books.GetByID(ctx, dune.ID, user1)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.RatingAvg)
	assert.Equal(t, 2, got.RatingCount)
	require.NotNil(t, got.UserRating)
	assert.Equal(t, 4.0, *got.UserRating)
	require.NotNil(t, got.InShelf)
	assert.False(t, *got.InShelf)

	added, err := svc.shelf.Add(ctx, user1, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, shelf.StatusNotStarted, added.Status)
	assert.Equal(t, "Dune", added.Book.Title)

	entries, err := svc.shelf.ListByUser(ctx, user1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, shelf.StatusNotStarted, entries[0].Status)
	assert.Equal(t, 4.5, entries[0].Book.RatingAvg)

	_, err = svc.shelf.UpdateStatus(ctx, user1, dune.ID, shelf.StatusReading)
	require.NoError(t, err)

	entries, err = svc.shelf.ListByUser(ctx, user1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, shelf.StatusReading, entries[0].Status)

	got, err = svc.books.GetByID(ctx, dune.ID, user1)
	require.NoError(t, err)
	assert.True(t, *got.InShelf)

	// A repeat add keeps the entry and its status.
	again, err := repos.Shelf.UpsertEntry(ctx, user1, dune.ID, shelf.StatusFinished)
	require.NoError(t, err)
	assert.Equal(t, added.ID, again.ID)
	assert.Equal(t, shelf.StatusReading, again.Status)

	// Re-rating overwrites.
	stats, err = svc.ratings.Rate(ctx, dune.ID, user1, 3)
	require.NoError(t, err)
	assert.Equal(t, rating.Stats{Avg: 4, Count: 2}, stats)

	removed, err := svc.shelf.Remove(ctx, user1, dune.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.shelf.Remove(ctx, user1, dune.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.shelf.UpdateStatus(ctx, user1, dune.ID, shelf.StatusFinished)
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestMemory_Scenario(t *testing.T) {
	runScenario(t, NewInMemory(WithClock(tickingClock())))
}

func TestMemory_Search(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Create(ctx, book.NewBook{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	_, err = m.Create(ctx, book.NewBook{Title: "1984", Author: "George Orwell"})
	require.NoError(t, err)

	out, err := m.List(ctx, book.Query{Search: "dun", Sort: book.SortDate})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Dune", out[0].Title)

	out, err = m.List(ctx, book.Query{Sort: book.SortTitle})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1984", out[0].Title)
}

func TestMemory_RatingSort(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithClock(tickingClock()))

	titles := []string{"A", "B", "C", "D"}
	ids := map[string]string{}
	for _, title := range titles {
		v, err := m.Create(ctx, book.NewBook{Title: title, Author: "X"})
		require.NoError(t, err)
		ids[title] = v.ID
	}
	_, _ = m.ApplyRating(ctx, ids["A"], "u1", 4)
	_, _ = m.ApplyRating(ctx, ids["B"], "u1", 4)
	_, _ = m.ApplyRating(ctx, ids["B"], "u2", 4)
	_, _ = m.ApplyRating(ctx, ids["C"], "u1", 5)

	out, err := m.List(ctx, book.Query{Sort: book.SortRating})
	require.NoError(t, err)
	got := make([]string, len(out))
	for i, v := range out {
		got[i] = v.Title
	}
	assert.Equal(t, []string{"C", "B", "A", "D"}, got)
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	missing := "00000000-0000-4000-8000-000000000000"

	_, err := m.GetByID(ctx, missing, "")
	assert.ErrorIs(t, err, book.ErrNotFound)

	_, err = m.ApplyRating(ctx, missing, "u1", 3)
	assert.ErrorIs(t, err, book.ErrNotFound)

	_, err = m.UpsertEntry(ctx, "u1", missing, shelf.StatusNotStarted)
	assert.ErrorIs(t, err, book.ErrNotFound)
}

// runConcurrentRaters has raters distinct users score one book at once and
// checks that every score landed.
func runConcurrentRaters(t *testing.T, repos Repositories, raters int) {
	t.Helper()
	ctx := context.Background()
	v, err := repos.Books.Create(ctx, book.NewBook{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < raters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repos.Ratings.ApplyRating(ctx, v.ID, fmt.Sprintf("rater-%d", i), float64(i%6))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repos.Books.GetByID(ctx, v.ID, "")
	require.NoError(t, err)
	assert.Equal(t, raters, got.RatingCount)
}

// runConcurrentAdders races adders calls adding the same book to one shelf
// and checks they all resolve to a single entry.
func runConcurrentAdders(t *testing.T, repos Repositories, adders int) {
	t.Helper()
	ctx := context.Background()
	v, err := repos.Books.Create(ctx, book.NewBook{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	userID := "adder-" + v.ID

	ids := make([]string, adders)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := repos.Shelf.UpsertEntry(ctx, userID, v.ID, shelf.StatusNotStarted)
			assert.NoError(t, err)
			ids[i] = e.ID
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, ids[0])
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	entries, err := repos.Shelf.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemory_ConcurrentRatingsAreNotLost(t *testing.T) {
	runConcurrentRaters(t, NewInMemory(), 50)
}

func TestMemory_ConcurrentUpsertCreatesOneEntry(t *testing.T) {
	runConcurrentAdders(t, NewInMemory(), 20)
}

func TestServices_MixedCaseSortOrdersByRating(t *testing.T) {
	ctx := context.Background()
	svc := newServices(NewInMemory(WithClock(tickingClock())))

	a, err := svc.books.Create(ctx, book.NewBook{Title: "A", Author: "X"})
	require.NoError(t, err)
	_, err = svc.books.Create(ctx, book.NewBook{Title: "B", Author: "X"})
	require.NoError(t, err)
	_, err = svc.ratings.Rate(ctx, a.ID, "u1", 5)
	require.NoError(t, err)

	for _, sort := range []book.Sort{"RATING", " rating ", "Rating"} {
		out, err := svc.books.List(ctx, book.Query{Sort: sort})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "A", out[0].Title, sort)
	}
}

func TestServices_RejectNonCanonicalIDs(t *testing.T) {
	ctx := context.Background()
	svc := newServices(NewInMemory())
	dune, err := svc.books.Create(ctx, book.NewBook{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)

	for _, id := range []string{
		"urn:uuid:" + dune.ID,
		"{" + dune.ID + "}",
		strings.ReplaceAll(dune.ID, "-", ""),
	} {
		_, err := svc.books.GetByID(ctx, id, "")
		assert.ErrorIs(t, err, book.ErrInvalidID, id)
		_, err = svc.ratings.Rate(ctx, id, "u1", 4)
		assert.ErrorIs(t, err, book.ErrInvalidID, id)
		_, err = svc.shelf.Add(ctx, "u1", id)
		assert.ErrorIs(t, err, book.ErrInvalidID, id)
		_, err = svc.shelf.UpdateStatus(ctx, "u1", id, shelf.StatusReading)
		assert.ErrorIs(t, err, book.ErrInvalidID, id)
		_, err = svc.shelf.Remove(ctx, "u1", id)
		assert.ErrorIs(t, err, book.ErrInvalidID, id)
	}

	got, err := svc.books.GetByID(ctx, strings.ToUpper(dune.ID), "")
	require.NoError(t, err)
	assert.Equal(t, dune.ID, got.ID)
}

func TestMemory_ListByUserOrdersByLastModified(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithClock(tickingClock()))
	first, _ := m.Create(ctx, book.NewBook{Title: "First", Author: "X"})
	second, _ := m.Create(ctx, book.NewBook{Title: "Second", Author: "X"})

	_, err := m.UpsertEntry(ctx, "u1", first.ID, shelf.StatusNotStarted)
	require.NoError(t, err)
	_, err = m.UpsertEntry(ctx, "u1", second.ID, shelf.StatusNotStarted)
	require.NoError(t, err)
	_, err = m.UpdateStatus(ctx, "u1", first.ID, shelf.StatusNotStarted)
	require.NoError(t, err)

	entries, err := m.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Book.Title)
	assert.Equal(t, "Second", entries[1].Book.Title)
}
