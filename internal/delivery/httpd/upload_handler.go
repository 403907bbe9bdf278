package httpd

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// Запас на multipart-границы, служебные поля и JSON-обёртку
const bodyOverhead = 64 << 10

// SubmitContent принимает JSON-заявку (text/url или file с содержимым в payload)
// и отвечает 202 с submission_id: обработка идёт асинхронно.
func (h *Handler) SubmitContent(w http.ResponseWriter, r *http.Request) {
	// Тело обрезается на уровне транспорта: читать мегабайты сверх лимита
	// ради последующего отказа в intake незачем
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+bodyOverhead)

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "Invalid request body")
		return
	}

	response, err := h.uploadService.Submit(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, response)
}

// SubmitFile — multipart-вариант для загрузки файла заметок целиком.
func (h *Handler) SubmitFile(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "Content-Type must be multipart/form-data")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+bodyOverhead)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "Failed to parse form data")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation.String(), "File is required")
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded file")
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal.String(), "Failed to read file")
		return
	}

	req := &models.SubmitRequest{
		SourceKind:   models.SourceKindFile.String(),
		Filename:     fileHeader.Filename,
		FileContent:  fileBytes,
		SubmissionID: r.FormValue("submission_id"),
		Metadata: models.SubmissionMetadata{
			OwnerID: r.FormValue("owner_id"),
			Channel: r.FormValue("channel"),
		},
	}

	response, err := h.uploadService.Submit(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, response)
}
