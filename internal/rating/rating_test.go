package rating

import (
	"math"
	"strconv"
	"testing"

	"bookshelf/internal/book"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var ratingGen = rapid.Custom(func(t *rapid.T) book.Rating {
	return book.Rating{
		UserID: rapid.StringMatching(`u[0-9]`).Draw(t, "user"),
		Score:  rapid.Float64Range(MinScore, MaxScore).Draw(t, "score"),
	}
})

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{Avg: 0, Count: 0}, ComputeStats(nil))
	assert.Equal(t, Stats{Avg: 0, Count: 0}, ComputeStats([]book.Rating{}))
}

func TestComputeStats_Mean(t *testing.T) {
	stats := ComputeStats([]book.Rating{{Score: 4}, {Score: 5}, {Score: 2.5}})
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 11.5/3, stats.Avg, 1e-9)
}

func TestComputeStats_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ratings := rapid.SliceOf(ratingGen).Draw(t, "ratings")
		stats := ComputeStats(ratings)

		if stats.Count != len(ratings) {
			t.Fatalf("count %d, want %d", stats.Count, len(ratings))
		}
		if len(ratings) == 0 {
			if stats.Avg != 0 {
				t.Fatalf("avg of empty list is %v", stats.Avg)
			}
			return
		}
		if stats.Avg < MinScore-1e-9 || stats.Avg > MaxScore+1e-9 {
			t.Fatalf("avg %v outside score range", stats.Avg)
		}
	})
}

func TestValidateScore(t *testing.T) {
	for _, ok := range []float64{0, 0.5, 3, 4.25, 5} {
		assert.NoError(t, ValidateScore(ok), ok)
	}
	for _, bad := range []float64{-0.1, 5.01, 6, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, ValidateScore(bad), ErrInvalidScore, bad)
	}
}

func TestApply_OverwritesInPlace(t *testing.T) {
	ratings := []book.Rating{{ID: "r1", UserID: "u1", Score: 3}, {ID: "r2", UserID: "u2", Score: 4}}

	ratings = Apply(ratings, "u1", 5, func() string { t.Fatal("no new id expected"); return "" })

	assert.Len(t, ratings, 2)
	assert.Equal(t, book.Rating{ID: "r1", UserID: "u1", Score: 5}, ratings[0])
	assert.Equal(t, Stats{Avg: 4.5, Count: 2}, ComputeStats(ratings))
}

func TestApply_AppendsNewUser(t *testing.T) {
	ratings := Apply(nil, "u1", 2, func() string { return "r1" })

	assert.Equal(t, []book.Rating{{ID: "r1", UserID: "u1", Score: 2}}, ratings)
}

func TestApply_AtMostOnePerUser(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var ratings []book.Rating
		latest := map[string]float64{}
		n := 0
		newID := func() string { n++; return strconv.Itoa(n) }

		steps := rapid.SliceOf(ratingGen).Draw(t, "steps")
		for _, s := range steps {
			ratings = Apply(ratings, s.UserID, s.Score, newID)
			latest[s.UserID] = s.Score
		}

		if len(ratings) != len(latest) {
			t.Fatalf("%d entries for %d users", len(ratings), len(latest))
		}
		for _, r := range ratings {
			if r.Score != latest[r.UserID] {
				t.Fatalf("user %s has %v, want latest %v", r.UserID, r.Score, latest[r.UserID])
			}
		}
	})
}
