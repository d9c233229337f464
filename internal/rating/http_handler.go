package rating

import (
	"errors"
	"net/http"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type rateReq struct {
	Score *float64 `json:"score" validate:"required"`
}

// Rate handles PATCH /v1/books/{id}/rating
// @Summary Create or update the caller's rating of a book
// @Description Scores range from 0 to 5 and may be fractional
// @Tags ratings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Book ID"
// @Param request body rateReq true "Rating request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/rating [patch]
func (h *HTTPHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req rateReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	stats, err := h.service.Rate(r.Context(), r.PathValue("id"), userID, *req.Score)
	if err != nil {
		switch {
		case errors.Is(err, book.ErrInvalidID):
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid book id", nil)
		case errors.Is(err, ErrInvalidScore):
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(),
				[]httpx.ErrorDetail{{Field: "score", Message: err.Error()}})
		case errors.Is(err, book.ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		default:
			httpx.InternalError(w, r, err)
		}
		return
	}

	httpx.JSONSuccess(w, r, stats, nil)
}
