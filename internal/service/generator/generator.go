package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/models"
	"github.com/ck496/theCleverDocs/blog-service/pkg/markdown"
)

// GeneratorService выдаёт составной результат: либо все три уровня, либо
// ошибку. Частичные наборы наружу не выходят.
type GeneratorService interface {
	Generate(ctx context.Context, sanitized, title string) (*models.VariantSet, error)
}

type generatorService struct {
	backend TextBackend
	cfg     config.GenerationConfig
	logger  zerolog.Logger
}

func NewGeneratorService(backend TextBackend, cfg config.GenerationConfig, logger zerolog.Logger) GeneratorService {
	return &generatorService{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *generatorService) Generate(ctx context.Context, sanitized, title string) (*models.VariantSet, error) {
	start := time.Now()

	var set models.VariantSet
	var mu sync.Mutex

	// Три вызова бэкенда параллельно; отказ любого уровня валит весь вызов
	g, gctx := errgroup.WithContext(ctx)
	for _, level := range models.AllLevels() {
		level := level
		g.Go(func() error {
			content, err := s.generateLevel(gctx, level, title, sanitized)
			if err != nil {
				return fmt.Errorf("level %s: %w", level, err)
			}

			mu.Lock()
			set.Set(level, content)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeGenerationUnavailable,
			"content generation backend unavailable", err)
	}

	s.logger.Info().
		Str("title", title).
		Dur("duration", time.Since(start)).
		Msg("Generated all expertise levels")

	return &set, nil
}

// generateLevel выполняет один вызов бэкенда с таймаутом и ограниченными
// повторами. Ретраи видны только здесь: вызывающий получает один успех
// или одну ошибку.
func (s *generatorService) generateLevel(ctx context.Context, level models.ExpertiseLevel, title, source string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= s.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			s.logger.Warn().
				Str("level", level.String()).
				Int("attempt", attempt).
				Msg("Retrying generation call")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		content, err := s.backend.GenerateText(callCtx, level, title, source)
		cancel()

		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		if err := validateOutput(content); err != nil {
			lastErr = err
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", s.cfg.RetryCount+1, lastErr)
}

// validateOutput — структурный минимум: непустой markdown с хотя бы одним
// заголовком или разрывом абзаца. Качественные свойства ("различимость
// по глубине") механически не проверяются.
func validateOutput(content string) error {
	if content == "" {
		return fmt.Errorf("empty generation output")
	}
	if !markdown.HasStructure(content) {
		return fmt.Errorf("generation output has no markdown structure")
	}
	return nil
}
