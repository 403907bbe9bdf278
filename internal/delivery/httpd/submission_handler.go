package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")
	if _, err := uuid.Parse(submissionID); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "submission_id must be a valid UUID")
		return
	}

	result, err := h.submissionService.GetResult(r.Context(), submissionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "owner_id query parameter is required")
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.ListByOwner(r.Context(), ownerID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, response)
}
