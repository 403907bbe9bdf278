package httpd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/progress"
)

// StreamProgress отдаёт события пайплайна как Server-Sent Events.
// Поток закрывается после терминального события; поздний подписчик на
// завершённую submission получает replay терминального события и закрытие.
func (h *Handler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal.String(), "Streaming is not supported")
		return
	}

	events, cancel, err := h.tracker.Subscribe(submissionID)
	if err != nil {
		if errors.Is(err, progress.ErrUnknownSubmission) {
			// Трекер уже выбросил поток по retention — терминальное
			// состояние восстанавливается из персистентной записи
			h.replayPersistedTerminal(w, r, flusher, submissionID)
			return
		}
		handleServiceError(w, err)
		return
	}
	defer cancel()

	writeSSEHeaders(w)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			// Клиент отключился; пайплайн продолжает работать
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			h.writeSSEEvent(w, flusher, event)

			if event.Terminal {
				return
			}
		}
	}
}

// replayPersistedTerminal синтезирует терминальное событие из сохранённой
// submission, когда эфемерный поток уже недоступен.
func (h *Handler) replayPersistedTerminal(w http.ResponseWriter, r *http.Request, flusher http.Flusher, submissionID string) {
	result, err := h.submissionService.GetResult(r.Context(), submissionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := models.SubmissionStatus(result.Status)
	if !status.Terminal() {
		writeError(w, http.StatusNotFound, models.ErrCodeNotFound.String(), "Submission not found")
		return
	}

	event := models.ProgressEvent{
		SubmissionID: submissionID,
		Step:         result.Status,
		StepIndex:    4,
		Terminal:     true,
	}
	switch {
	case status == models.SubmissionStatusCompleted:
		event.Percentage = 100
		event.Message = "blog content ready"
	case result.Error != nil:
		event.Message = result.Error.Code
	default:
		event.Message = models.ErrCodeInternal.String()
	}

	writeSSEHeaders(w)
	h.writeSSEEvent(w, flusher, event)
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event models.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal progress event")
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
