package book

import (
	"errors"
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createBookReq struct {
	Title         string `json:"title" validate:"notblank,max=500"`
	Author        string `json:"author" validate:"notblank,max=300"`
	Description   string `json:"description" validate:"max=5000"`
	CoverImageURL string `json:"coverImageUrl" validate:"omitempty,url"`
	// CoverURL is the older name of CoverImageURL, still sent by some clients.
	CoverURL string `json:"coverUrl" validate:"omitempty,url"`
}

// List handles GET /v1/books
// @Summary List books
// @Description Search by title or author and sort by date, title or rating
// @Tags books
// @Produce json
// @Param search query string false "Case-insensitive substring of title or author"
// @Param sort query string false "date (default), title or rating"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sort, err := ParseSort(query.Get("sort"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_SORT", "sort must be one of date, title, rating", nil)
		return
	}

	books, err := h.service.List(r.Context(), Query{
		Search:   query.Get("search"),
		Sort:     sort,
		CallerID: httpx.UserIDFrom(r),
	})
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{"count": len(books)})
}

// GetByID handles GET /v1/books/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByID(r.Context(), r.PathValue("id"), httpx.UserIDFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid book id", nil)
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		default:
			httpx.InternalError(w, r, err)
		}
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /v1/books
// @Summary Add a book to the catalogue
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req createBookReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	if req.CoverImageURL == "" {
		req.CoverImageURL = req.CoverURL
	}

	b, err := h.service.Create(r.Context(), NewBook{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		CreatedBy:     userID,
	})
	if err != nil {
		if errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrAuthorRequired) {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b)
}
