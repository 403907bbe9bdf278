package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
	"github.com/ck496/theCleverDocs/blog-service/internal/repository"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/progress"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// SubmissionService отвечает за чтение результатов пайплайна.
type SubmissionService interface {
	GetResult(ctx context.Context, id string) (*models.SubmissionResult, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) (*models.SubmissionsResponse, error)
}

type submissionService struct {
	repo    repository.SubmissionRepository
	tracker *progress.Tracker
	logger  zerolog.Logger
}

func NewSubmissionService(repo repository.SubmissionRepository, tracker *progress.Tracker, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		repo:    repo,
		tracker: tracker,
		logger:  logger,
	}
}

// GetResult собирает итог по submission. Пока пайплайн идёт, записи в БД ещё
// нет — статус берётся из трекера; после терминального состояния источник
// истины только БД.
func (s *submissionService) GetResult(ctx context.Context, id string) (*models.SubmissionResult, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to load submission", err)
	}

	if submission == nil {
		if event, ok := s.tracker.LastEvent(id); ok {
			return &models.SubmissionResult{
				ID:     id,
				Status: event.Step,
			}, nil
		}
		return nil, models.NewPipelineError(models.ErrCodeNotFound, "submission not found", nil)
	}

	result := &models.SubmissionResult{
		ID:          submission.ID,
		OwnerID:     submission.OwnerID,
		SourceKind:  submission.SourceKind,
		Status:      submission.Status,
		Title:       submission.Title,
		CreatedAt:   submission.CreatedAt,
		CompletedAt: submission.CompletedAt,
	}

	switch submission.Status {
	case models.SubmissionStatusCompleted.String():
		variants, err := s.repo.GetVariants(ctx, submission.ID)
		if err != nil {
			return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to load variants", err)
		}
		result.Variants = variants

	case models.SubmissionStatusFailed.String():
		code := models.ErrCodeInternal
		if submission.ErrorCode != nil {
			code = models.ErrorCode(*submission.ErrorCode)
		}
		message := ""
		if submission.ErrorMessage != nil {
			message = *submission.ErrorMessage
		}
		result.Error = &models.SubmissionError{
			Code:      code.String(),
			Message:   message,
			Retryable: code.Retryable(),
		}
	}

	return result, nil
}

func (s *submissionService) ListByOwner(ctx context.Context, ownerID string, page, limit int) (*models.SubmissionsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := (page - 1) * limit

	submissions, total, err := s.repo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to list submissions", err)
	}

	if submissions == nil {
		submissions = []models.Submission{}
	}

	// Полное содержимое в листинге не отдаём
	for i := range submissions {
		submissions[i].SanitizedContent = ""
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}
