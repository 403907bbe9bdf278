package models

import (
	"errors"
	"fmt"
)

// ErrorCode — клиентская таксономия ошибок пайплайна. Любая внутренняя ошибка
// отображается ровно в один код до того, как покинет оркестратор.
type ErrorCode string

const (
	ErrCodeValidation            ErrorCode = "ValidationError"
	ErrCodeUnsupportedFormat     ErrorCode = "UnsupportedFormat"
	ErrCodeFetchFailed           ErrorCode = "FetchFailed"
	ErrCodeUnsafeURL             ErrorCode = "UnsafeUrl"
	ErrCodeGenerationUnavailable ErrorCode = "GenerationUnavailable"
	ErrCodePersistence           ErrorCode = "PersistenceError"
	ErrCodeDuplicateSubmission   ErrorCode = "DuplicateSubmission"
	ErrCodeNotFound              ErrorCode = "NotFound"
	ErrCodeInternal              ErrorCode = "InternalError"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Retryable: транзиентные коды, при которых клиенту имеет смысл повторить запрос.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeGenerationUnavailable, ErrCodePersistence:
		return true
	default:
		return false
	}
}

type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(code ErrorCode, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// Classify приводит произвольную ошибку к PipelineError. Всё
// неклассифицированное становится InternalError с общим сообщением —
// внутренний текст ошибки не должен уходить клиенту.
func Classify(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{
		Code:    ErrCodeInternal,
		Message: "internal processing error",
		Err:     err,
	}
}
