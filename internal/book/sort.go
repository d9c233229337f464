package book

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders two views for the given sort. Every chain ends on the id,
// so the result is a total order and matches the ORDER BY used by
// PostgresRepo.
func Compare(s Sort, a, b View) int {
	switch s {
	case SortTitle:
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
	case SortRating:
		if c := cmp.Compare(b.RatingAvg, a.RatingAvg); c != 0 {
			return c
		}
		if c := cmp.Compare(b.RatingCount, a.RatingCount); c != 0 {
			return c
		}
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SortViews sorts views in place.
func SortViews(views []View, s Sort) {
	slices.SortFunc(views, func(a, b View) int { return Compare(s, a, b) })
}
