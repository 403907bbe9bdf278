package httpd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// Вспомогательные функции для работы с запросами
func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// Функции для отправки ответов
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":      code,
			"message":   message,
			"retryable": models.ErrorCode(code).Retryable(),
		},
		"success":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, status, response)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, status, response)
}

// handleServiceError отображает таксономию ошибок пайплайна в HTTP-статусы.
// Любая ошибка без кода уходит клиенту как InternalError без деталей.
func handleServiceError(w http.ResponseWriter, err error) {
	pe := models.Classify(err)

	var status int
	switch pe.Code {
	case models.ErrCodeValidation:
		status = http.StatusBadRequest
	case models.ErrCodeUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case models.ErrCodeFetchFailed, models.ErrCodeUnsafeURL:
		status = http.StatusUnprocessableEntity
	case models.ErrCodeDuplicateSubmission:
		status = http.StatusConflict
	case models.ErrCodeNotFound:
		status = http.StatusNotFound
	case models.ErrCodeGenerationUnavailable, models.ErrCodePersistence:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	writeError(w, status, pe.Code.String(), pe.Message)
}
