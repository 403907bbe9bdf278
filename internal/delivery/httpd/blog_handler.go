package httpd

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// GetBlogs возвращает все завершённые блоги с фильтрами ?docType= и ?tags=a,b.
// Ответ в конверте {status, data, total, filteredTotal}.
func (h *Handler) GetBlogs(w http.ResponseWriter, r *http.Request) {
	docType := r.URL.Query().Get("docType")

	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	response, err := h.blogService.GetBlogs(r.Context(), docType, tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetBlogByID(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "blog_id")
	if _, err := uuid.Parse(blogID); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "blog_id must be a valid UUID")
		return
	}

	response, err := h.blogService.GetBlogByID(r.Context(), blogID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
