// Package rating aggregates per-user scores into a book's average and count.
package rating

import (
	"errors"
	"math"

	"bookshelf/internal/book"
)

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// ErrInvalidScore is returned for a score that is not a finite number in
// [MinScore, MaxScore].
var ErrInvalidScore = errors.New("score must be a number between 0 and 5")

// Stats is the derived rating summary of a book. Avg is not rounded.
type Stats struct {
	Avg   float64 `json:"ratingAvg"`
	Count int     `json:"ratingCount"`
}

// ValidateScore accepts fractional scores within range.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// ComputeStats returns the count and arithmetic mean of ratings, with an
// average of 0 for an empty list.
func ComputeStats(ratings []book.Rating) Stats {
	if len(ratings) == 0 {
		return Stats{}
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Score
	}
	return Stats{Avg: sum / float64(len(ratings)), Count: len(ratings)}
}

// Apply records userID's score. An existing entry for the user is
// overwritten in place and keeps its ID; otherwise an entry with newID() is
// appended. The input slice may be modified.
func Apply(ratings []book.Rating, userID string, score float64, newID func() string) []book.Rating {
	for i := range ratings {
		if ratings[i].UserID == userID {
			ratings[i].Score = score
			return ratings
		}
	}
	return append(ratings, book.Rating{ID: newID(), UserID: userID, Score: score})
}
