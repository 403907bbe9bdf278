package models

import "time"

// Data Transfer Objects

type SubmissionMetadata struct {
	OwnerID string `json:"owner_id,omitempty"`
	Channel string `json:"channel,omitempty"` // internal/enterprise каналы форсируют глубокую проверку
}

type SubmitRequest struct {
	SourceKind   string             `json:"source_kind" validate:"required,oneof=text file url"`
	Payload      string             `json:"payload"`
	Filename     string             `json:"filename,omitempty"`
	FileContent  []byte             `json:"-"` // Для внутреннего использования
	SubmissionID string             `json:"submission_id,omitempty"`
	Metadata     SubmissionMetadata `json:"metadata"`
}

type SubmitResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
}

type SubmissionError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type SubmissionResult struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	SourceKind  string             `json:"source_kind"`
	Status      string             `json:"status"`
	Title       string             `json:"title,omitempty"`
	Variants    []GeneratedVariant `json:"variants,omitempty"`
	Error       *SubmissionError   `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

type SubmissionsResponse struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// ProgressEvent — эфемерное уведомление о переходе пайплайна, не персистится.
type ProgressEvent struct {
	SubmissionID string `json:"submission_id"`
	Step         string `json:"step"`
	StepIndex    int    `json:"step_index"`
	Percentage   int    `json:"percentage"`
	Message      string `json:"message"`
	Terminal     bool   `json:"terminal"`
}
