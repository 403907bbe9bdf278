package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/models"
	"github.com/ck496/theCleverDocs/blog-service/internal/repository"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/generator"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/integration"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/progress"
	"github.com/ck496/theCleverDocs/blog-service/internal/worker"
	"github.com/ck496/theCleverDocs/blog-service/pkg/markdown"
)

const anonymousOwner = "anonymous"

// UploadService — оркестратор пайплайна. Единственный владелец статуса
// Submission: никакой другой компонент статус не пишет.
type UploadService interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error)
}

type uploadService struct {
	intake         IntakeService
	sanitizer      SanitizerService
	generator      generator.GeneratorService
	tracker        *progress.Tracker
	submissionRepo repository.SubmissionRepository
	archiveRepo    repository.ArchiveRepository
	rabbitmqClient integration.RabbitMQClient
	pool           *worker.Pool
	cfg            config.PipelineConfig
	inFlight       sync.Map // single-flight реестр по submission id
	logger         zerolog.Logger
}

func NewUploadService(
	intake IntakeService,
	sanitizer SanitizerService,
	gen generator.GeneratorService,
	tracker *progress.Tracker,
	submissionRepo repository.SubmissionRepository,
	archiveRepo repository.ArchiveRepository,
	rabbitmqClient integration.RabbitMQClient,
	pool *worker.Pool,
	cfg config.PipelineConfig,
	logger zerolog.Logger,
) UploadService {
	return &uploadService{
		intake:         intake,
		sanitizer:      sanitizer,
		generator:      gen,
		tracker:        tracker,
		submissionRepo: submissionRepo,
		archiveRepo:    archiveRepo,
		rabbitmqClient: rabbitmqClient,
		pool:           pool,
		cfg:            cfg,
		logger:         logger,
	}
}

func (s *uploadService) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	// Дешёвая валидация до создания Submission: пустой ввод, размер,
	// формат и политика URL отклоняются синхронно, ничего не персистится
	if err := s.intake.ValidateRequest(req); err != nil {
		return nil, err
	}

	submissionID := req.SubmissionID
	if submissionID == "" {
		submissionID = uuid.New().String()
	} else {
		if _, err := uuid.Parse(submissionID); err != nil {
			return nil, models.NewPipelineError(models.ErrCodeValidation, "submission_id must be a valid UUID", err)
		}

		exists, err := s.submissionRepo.Exists(ctx, submissionID)
		if err != nil {
			return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to check submission id", err)
		}
		if exists {
			return nil, models.NewPipelineError(models.ErrCodeDuplicateSubmission,
				"submission with this id already processed", nil)
		}
	}

	// Атомарный insert-if-absent: второй конкурентный запрос с тем же id
	// отклоняется, а не ставится в очередь
	if _, loaded := s.inFlight.LoadOrStore(submissionID, struct{}{}); loaded {
		return nil, models.NewPipelineError(models.ErrCodeDuplicateSubmission,
			"submission with this id is already being processed", nil)
	}

	ownerID := req.Metadata.OwnerID
	if ownerID == "" {
		ownerID = anonymousOwner
	}

	submission := &models.Submission{
		ID:         submissionID,
		OwnerID:    ownerID,
		SourceKind: req.SourceKind,
		Status:     models.SubmissionStatusReceived.String(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	s.tracker.Register(submissionID)

	// Пайплайн живёт независимо от соединения клиента: отключение от
	// прогресса останавливает только доставку событий, не обработку.
	// Переполненный пул откатывает приём целиком: single-flight запись
	// освобождается, поток событий закрывается терминально
	if err := s.pool.Submit(func() { s.runPipeline(submission, req) }); err != nil {
		s.inFlight.Delete(submissionID)
		s.tracker.Publish(models.ProgressEvent{
			SubmissionID: submissionID,
			Step:         models.SubmissionStatusFailed.String(),
			StepIndex:    4,
			Percentage:   0,
			Message:      models.ErrCodeInternal.String(),
			Terminal:     true,
		})
		s.logger.Error().Err(err).
			Str("submission_id", submissionID).
			Msg("Pipeline queue saturated, submission rejected")
		return nil, models.NewPipelineError(models.ErrCodeInternal, "processing queue is full, retry later", err)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("owner_id", ownerID).
		Str("source_kind", req.SourceKind).
		Msg("Submission accepted")

	return &models.SubmitResponse{
		Status:       "accepted",
		SubmissionID: submissionID,
	}, nil
}

func (s *uploadService) runPipeline(submission *models.Submission, req *models.SubmitRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MaxDuration)
	defer cancel()
	defer s.inFlight.Delete(submission.ID)

	pct := 0
	publish := func(status models.SubmissionStatus, stepIndex, percentage int, message string, terminal bool) {
		pct = percentage
		submission.Status = status.String()
		s.tracker.Publish(models.ProgressEvent{
			SubmissionID: submission.ID,
			Step:         status.String(),
			StepIndex:    stepIndex,
			Percentage:   percentage,
			Message:      message,
			Terminal:     terminal,
		})
	}

	publish(models.SubmissionStatusReceived, 0, 0, "submission received", false)

	canonical, err := s.intake.Normalize(ctx, req)
	if err != nil {
		s.fail(submission, pct, err)
		return
	}

	publish(models.SubmissionStatusSanitizing, 1, 10, "scanning content for secrets", false)

	highRisk := isHighRiskChannel(req.Metadata.Channel)
	submission.SanitizedContent = s.sanitizer.Sanitize(ctx, canonical.Content, highRisk)

	title := markdown.ExtractTitle(submission.SanitizedContent, canonical.Filename)

	publish(models.SubmissionStatusGenerating, 2, 25, "generating expertise levels", false)

	set, err := s.generator.Generate(ctx, submission.SanitizedContent, title)
	if err != nil {
		s.fail(submission, pct, err)
		return
	}

	publish(models.SubmissionStatusSaving, 3, 90, "saving generated content", false)

	now := time.Now()
	submission.Title = title
	submission.Excerpt = markdown.Excerpt(submission.SanitizedContent, 150)
	submission.ReadTime = markdown.ReadTime(submission.SanitizedContent)
	submission.Tags = deriveTags(submission.SanitizedContent)
	submission.Status = models.SubmissionStatusCompleted.String()
	submission.CompletedAt = &now
	submission.UpdatedAt = now

	variants := make([]models.GeneratedVariant, 0, len(models.AllLevels()))
	for _, level := range models.AllLevels() {
		variants = append(variants, models.GeneratedVariant{
			SubmissionID: submission.ID,
			Level:        level.String(),
			Content:      set.Get(level),
			GeneratedAt:  now,
		})
	}

	if err := s.submissionRepo.SaveCompleted(ctx, submission, variants); err != nil {
		s.fail(submission, pct, models.NewPipelineError(models.ErrCodePersistence, "failed to persist submission", err))
		return
	}

	// Пост-коммитные шаги best-effort: БД уже источник истины
	s.archiveVariants(variants)
	s.notifyCompleted(ctx, submission)

	publish(models.SubmissionStatusCompleted, 4, 100, "blog content ready", true)

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("title", title).
		Dur("duration", time.Since(submission.CreatedAt)).
		Msg("Submission pipeline completed")
}

// fail переводит Submission в терминальное failed, персистит запись с кодом
// ошибки и всегда завершает поток событий — клиент не остаётся без
// терминального события даже при внутреннем таймауте.
func (s *uploadService) fail(submission *models.Submission, pct int, err error) {
	pe := models.Classify(err)

	now := time.Now()
	code := pe.Code.String()
	message := pe.Message
	submission.Status = models.SubmissionStatusFailed.String()
	submission.ErrorCode = &code
	submission.ErrorMessage = &message
	submission.CompletedAt = &now
	submission.UpdatedAt = now

	// Контекст пайплайна к этому моменту может быть уже мёртв
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if saveErr := s.submissionRepo.SaveFailed(saveCtx, submission); saveErr != nil {
		s.logger.Error().Err(saveErr).
			Str("submission_id", submission.ID).
			Msg("Failed to persist failed submission")
	}

	s.notifyFailed(saveCtx, submission, pe)

	s.tracker.Publish(models.ProgressEvent{
		SubmissionID: submission.ID,
		Step:         models.SubmissionStatusFailed.String(),
		StepIndex:    4,
		Percentage:   pct,
		Message:      code,
		Terminal:     true,
	})

	s.logger.Error().Err(pe.Err).
		Str("submission_id", submission.ID).
		Str("error_code", code).
		Msg("Submission pipeline failed")
}

func (s *uploadService) archiveVariants(variants []models.GeneratedVariant) {
	if s.archiveRepo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for i := range variants {
			if err := s.archiveRepo.UploadVariant(ctx, &variants[i]); err != nil {
				s.logger.Error().Err(err).
					Str("submission_id", variants[i].SubmissionID).
					Str("level", variants[i].Level).
					Msg("Failed to archive variant")
			}
		}
	}()
}

func (s *uploadService) notifyCompleted(ctx context.Context, submission *models.Submission) {
	if s.rabbitmqClient == nil {
		return
	}

	levels := make([]string, 0, len(models.AllLevels()))
	for _, level := range models.AllLevels() {
		levels = append(levels, level.String())
	}

	event := &models.SubmissionCompletedEvent{
		SubmissionID: submission.ID,
		OwnerID:      submission.OwnerID,
		Title:        submission.Title,
		Levels:       levels,
		Timestamp:    time.Now().Unix(),
	}

	if err := s.rabbitmqClient.PublishSubmissionCompleted(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish submission completed event")
		// Не прерываем выполнение, только логируем ошибку
	}
}

func (s *uploadService) notifyFailed(ctx context.Context, submission *models.Submission, pe *models.PipelineError) {
	if s.rabbitmqClient == nil {
		return
	}

	event := &models.SubmissionFailedEvent{
		SubmissionID: submission.ID,
		OwnerID:      submission.OwnerID,
		ErrorCode:    pe.Code.String(),
		ErrorMessage: pe.Message,
		Timestamp:    time.Now().Unix(),
	}

	if err := s.rabbitmqClient.PublishSubmissionFailed(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish submission failed event")
	}
}

func isHighRiskChannel(channel string) bool {
	switch strings.ToLower(channel) {
	case "internal", "enterprise":
		return true
	default:
		return false
	}
}

func deriveTags(content string) []string {
	tags := []string{"Tech"}

	lower := strings.ToLower(content)
	if strings.Contains(lower, "tutorial") || strings.Contains(lower, "how to") {
		tags = append(tags, "Tutorial")
	}
	if strings.Contains(lower, "```") {
		tags = append(tags, "Code")
	}
	if len(tags) == 1 {
		tags = append(tags, "Documentation")
	}

	return tags
}
