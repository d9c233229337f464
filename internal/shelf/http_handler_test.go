package shelf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newShelfRequest(method, path, body, userID string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID != "" {
		r = r.WithContext(httpx.ContextWithUser(r.Context(), userID))
	}
	return r
}

func TestHTTPHandler_Add(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("UpsertEntry", mock.Anything, "u1", testBookID, StatusNotStarted).
			Return(Entry{ID: "e1", Status: StatusNotStarted, Book: book.View{ID: testBookID, Title: "Dune"}}, nil)
		h := NewHTTPHandler(NewService(repo))

		w := httptest.NewRecorder()
		h.Add(w, newShelfRequest(http.MethodPost, "/v1/shelf", `{"bookId":"`+testBookID+`"}`, "u1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"not_started"`)
		assert.Contains(t, w.Body.String(), `"title":"Dune"`)
	})

	t.Run("book missing", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("UpsertEntry", mock.Anything, "u1", testBookID, StatusNotStarted).Return(Entry{}, book.ErrNotFound)
		h := NewHTTPHandler(NewService(repo))

		w := httptest.NewRecorder()
		h.Add(w, newShelfRequest(http.MethodPost, "/v1/shelf", `{"bookId":"`+testBookID+`"}`, "u1"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found")
	})

	t.Run("missing bookId", func(t *testing.T) {
		h := NewHTTPHandler(NewService(new(mockRepo)))

		w := httptest.NewRecorder()
		h.Add(w, newShelfRequest(http.MethodPost, "/v1/shelf", `{}`, "u1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthorized", func(t *testing.T) {
		h := NewHTTPHandler(NewService(new(mockRepo)))

		w := httptest.NewRecorder()
		h.Add(w, newShelfRequest(http.MethodPost, "/v1/shelf", `{"bookId":"`+testBookID+`"}`, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoErr        error
		callsRepo      bool
		expectedStatus int
	}{
		{name: "success", body: `{"status":"reading"}`, callsRepo: true, expectedStatus: http.StatusOK},
		{name: "not on shelf", body: `{"status":"reading"}`, callsRepo: true, repoErr: ErrNotFound, expectedStatus: http.StatusNotFound},
		{name: "invalid status", body: `{"status":"abandoned"}`, expectedStatus: http.StatusBadRequest},
		{name: "missing status", body: `{}`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			if tt.callsRepo {
				repo.On("UpdateStatus", mock.Anything, "u1", testBookID, StatusReading).
					Return(Entry{ID: "e1", Status: StatusReading}, tt.repoErr)
			}
			h := NewHTTPHandler(NewService(repo))

			w := httptest.NewRecorder()
			r := newShelfRequest(http.MethodPatch, "/v1/shelf/"+testBookID, tt.body, "u1")
			r.SetPathValue("bookId", testBookID)
			h.UpdateStatus(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_Remove(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("Remove", mock.Anything, "u1", testBookID).Return(true, nil)
		h := NewHTTPHandler(NewService(repo))

		w := httptest.NewRecorder()
		r := newShelfRequest(http.MethodDelete, "/v1/shelf/"+testBookID, "", "u1")
		r.SetPathValue("bookId", testBookID)
		h.Remove(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("absent", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("Remove", mock.Anything, "u1", testBookID).Return(false, nil)
		h := NewHTTPHandler(NewService(repo))

		w := httptest.NewRecorder()
		r := newShelfRequest(http.MethodDelete, "/v1/shelf/"+testBookID, "", "u1")
		r.SetPathValue("bookId", testBookID)
		h.Remove(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found in shelf")
	})
}

func TestHTTPHandler_List(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListByUser", mock.Anything, "u1").Return([]Entry{{ID: "e1", Status: StatusFinished}}, nil)
	h := NewHTTPHandler(NewService(repo))

	w := httptest.NewRecorder()
	h.List(w, newShelfRequest(http.MethodGet, "/v1/shelf", "", "u1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"finished"`)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
