package models

import (
	"time"
)

type Submission struct {
	ID               string     `json:"id" db:"id"`
	OwnerID          string     `json:"owner_id" db:"owner_id"`
	SourceKind       string     `json:"source_kind" db:"source_kind"`
	SanitizedContent string     `json:"sanitized_content,omitempty" db:"sanitized_content"`
	Status           string     `json:"status" db:"status"`
	Title            string     `json:"title,omitempty" db:"title"`
	Excerpt          string     `json:"excerpt,omitempty" db:"excerpt"`
	ReadTime         string     `json:"read_time,omitempty" db:"read_time"`
	Tags             []string   `json:"tags,omitempty" db:"tags"`
	ErrorCode        *string    `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage     *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type SourceKind string

const (
	SourceKindText SourceKind = "text"
	SourceKindFile SourceKind = "file"
	SourceKindURL  SourceKind = "url"
)

func (sk SourceKind) String() string {
	return string(sk)
}

func IsValidSourceKind(kind string) bool {
	switch kind {
	case "text", "file", "url":
		return true
	default:
		return false
	}
}

type SubmissionStatus string

const (
	SubmissionStatusReceived   SubmissionStatus = "received"
	SubmissionStatusSanitizing SubmissionStatus = "sanitizing"
	SubmissionStatusGenerating SubmissionStatus = "generating"
	SubmissionStatusSaving     SubmissionStatus = "saving"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
	SubmissionStatusFailed     SubmissionStatus = "failed"
)

func (ss SubmissionStatus) String() string {
	return string(ss)
}

// Terminal сообщает, является ли статус конечным.
func (ss SubmissionStatus) Terminal() bool {
	return ss == SubmissionStatusCompleted || ss == SubmissionStatusFailed
}
