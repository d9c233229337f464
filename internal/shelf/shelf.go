// Package shelf keeps each user's reading list: one entry per (user, book)
// with a reading status.
package shelf

import (
	"errors"
	"time"

	"bookshelf/internal/book"
)

var (
	ErrNotFound      = errors.New("book not found in shelf")
	ErrInvalidStatus = errors.New(`invalid status, use "not_started", "reading" or "finished"`)
	// ErrConflict marks a lost insert race on (user, book). Repositories
	// resolve it to the existing entry and never return it from UpsertEntry.
	ErrConflict = errors.New("shelf entry already exists")
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusReading    Status = "reading"
	StatusFinished   Status = "finished"
)

func ValidateStatus(status Status) error {
	switch status {
	case StatusNotStarted, StatusReading, StatusFinished:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Entry is a shelf record with its book resolved.
type Entry struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user"`
	BookID    string    `json:"-"`
	Status    Status    `json:"status"`
	Book      book.View `json:"book"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
