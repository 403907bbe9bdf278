package httpd

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/service"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/progress"
	"github.com/ck496/theCleverDocs/blog-service/internal/worker"
)

type Handler struct {
	uploadService     service.UploadService
	submissionService service.SubmissionService
	blogService       service.BlogService
	tracker           *progress.Tracker
	pool              *worker.Pool
	maxUploadSize     int64
	logger            zerolog.Logger
}

func NewHandler(
	uploadService service.UploadService,
	submissionService service.SubmissionService,
	blogService service.BlogService,
	tracker *progress.Tracker,
	pool *worker.Pool,
	maxUploadSize int64,
	logger zerolog.Logger,
) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 1 << 20
	}

	return &Handler{
		uploadService:     uploadService,
		submissionService: submissionService,
		blogService:       blogService,
		tracker:           tracker,
		pool:              pool,
		maxUploadSize:     maxUploadSize,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	// Health check
	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadyCheck)
	router.Get("/stats", h.GetStats)

	// Versioned API
	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/submissions", func(r chi.Router) {
			r.Post("/", h.SubmitContent)
			r.Post("/upload", h.SubmitFile) // multipart-вариант
			r.Get("/", h.ListSubmissions)
			r.Get("/{submission_id}", h.GetSubmission)
			r.Get("/{submission_id}/events", h.StreamProgress)
		})

		api.Route("/blogs", func(r chi.Router) {
			r.Get("/", h.GetBlogs)
			r.Get("/{blog_id}", h.GetBlogByID)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "blog-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"active_workers": h.pool.ActiveWorkers(),
		"queue_length":   h.pool.QueueLength(),
		"timestamp":      time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}
