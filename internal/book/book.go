package book

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidID is returned when a book id is not a well-formed UUID.
	ErrInvalidID = errors.New("invalid book id")
	// ErrInvalidSort is returned for a sort key other than date, title or rating.
	ErrInvalidSort = errors.New(`invalid sort, use "date", "title" or "rating"`)

	ErrTitleRequired  = errors.New("title is required")
	ErrAuthorRequired = errors.New("author is required")
)

// Rating is a single user's score on a book. A book holds at most one
// Rating per UserID.
type Rating struct {
	ID     string  `json:"_id"`
	UserID string  `json:"user"`
	Score  float64 `json:"score"`
}

// Book represents a catalog entry together with its ratings.
type Book struct {
	ID            string
	Title         string
	Author        string
	Description   string
	CoverImageURL string
	CreatedBy     string
	Ratings       []Rating
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// View is the read shape of a book. RatingAvg and RatingCount are computed
// on read; UserRating and InShelf are only set for a known caller.
type View struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	RatingAvg     float64   `json:"ratingAvg"`
	RatingCount   int       `json:"ratingCount"`
	UserRating    *float64  `json:"userRating,omitempty"`
	InShelf       *bool     `json:"inShelf,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sort selects the ordering of List results.
type Sort string

const (
	SortDate   Sort = "date"
	SortTitle  Sort = "title"
	SortRating Sort = "rating"
)

// ParseSort maps a query value to a Sort. The empty string means SortDate.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDate:
		return SortDate, nil
	case SortTitle:
		return SortTitle, nil
	case SortRating:
		return SortRating, nil
	default:
		return "", ErrInvalidSort
	}
}

// Query defines the filter, ordering and caller scope for listing books.
type Query struct {
	Search   string
	Sort     Sort
	CallerID string
}

// NewBook holds the fields accepted when cataloguing a book.
type NewBook struct {
	Title         string
	Author        string
	Description   string
	CoverImageURL string
	CreatedBy     string
}

// Normalize trims the text fields and checks the required ones.
func (n NewBook) Normalize() (NewBook, error) {
	n.Title = strings.TrimSpace(n.Title)
	n.Author = strings.TrimSpace(n.Author)
	n.Description = strings.TrimSpace(n.Description)
	n.CoverImageURL = strings.TrimSpace(n.CoverImageURL)
	if n.Title == "" {
		return NewBook{}, ErrTitleRequired
	}
	if n.Author == "" {
		return NewBook{}, ErrAuthorRequired
	}
	return n, nil
}

// ValidateID reports ErrInvalidID unless id is a UUID in its canonical
// hyphenated form. uuid.Parse alone also takes the braced, urn and
// hyphenless spellings, which the stores cannot look up.
func ValidateID(id string) error {
	if len(id) != 36 {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// MatchesSearch reports whether search is a case-insensitive substring of
// the title or the author. A blank search matches everything.
func MatchesSearch(search, title, author string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), search) ||
		strings.Contains(strings.ToLower(author), search)
}
