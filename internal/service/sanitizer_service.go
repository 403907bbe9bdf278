package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/integration"
)

// RedactionMarker — маркер фиксированной ширины, однострочный, чтобы не
// ломать построчный рендеринг ниже по конвейеру. Не совпадает ни с одним
// детектором, поэтому повторная санитизация ничего не меняет.
const RedactionMarker = "[REDACTED]"

type detector struct {
	name        string
	re          *regexp.Regexp
	replacement string
}

// Порядок имеет значение: правило присваиваний идёт первым, чтобы сохранить
// имя ключа (password=[REDACTED]), остальные заменяют совпадение целиком.
var detectors = []detector{
	{
		name:        "secret-assignment",
		re:          regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|access[_-]?key|auth[_-]?token|aws_secret_access_key)(\s*[:=]\s*)("[^"\n]+"|'[^'\n]+'|\S+)`),
		replacement: "${1}${2}" + RedactionMarker,
	},
	{
		name:        "aws-access-key-id",
		re:          regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),
		replacement: RedactionMarker,
	},
	{
		name:        "pem-private-key",
		re:          regexp.MustCompile(`-----(BEGIN|END)( [A-Z]+)* PRIVATE KEY-----`),
		replacement: RedactionMarker,
	},
	{
		name:        "bearer-token",
		re:          regexp.MustCompile(`(?i)\bbearer\s+[a-zA-Z0-9\-_.=]+`),
		replacement: "Bearer " + RedactionMarker,
	},
	{
		name:        "high-entropy-token",
		re:          regexp.MustCompile(`\b[A-Za-z0-9+/]{40,}={0,2}\b`),
		replacement: RedactionMarker,
	},
	{
		name:        "email-address",
		re:          regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
		replacement: RedactionMarker,
	},
}

type SanitizerService interface {
	// Sanitize редактирует секреты/PII и всегда успешна: сбой глубокой
	// проверки деградирует до regex-результата, а не до ошибки.
	Sanitize(ctx context.Context, text string, highRisk bool) string
}

type sanitizerService struct {
	cfg      config.SanitizerConfig
	deepScan integration.DeepScanClient
	logger   zerolog.Logger
}

func NewSanitizerService(cfg config.SanitizerConfig, deepScan integration.DeepScanClient, logger zerolog.Logger) SanitizerService {
	return &sanitizerService{
		cfg:      cfg,
		deepScan: deepScan,
		logger:   logger,
	}
}

func (s *sanitizerService) Sanitize(ctx context.Context, text string, highRisk bool) string {
	// Быстрый проход: regex-детекторы
	redacted, matches := applyDetectors(text)

	score := riskScore(matches, len(text))
	escalate := highRisk || score >= s.cfg.RiskThreshold

	if escalate && s.deepScan != nil && s.deepScan.Enabled() {
		scanned, err := s.deepScan.Scan(ctx, redacted)
		switch {
		case err != nil:
			// Глубокая проверка недоступна — остаёмся на regex-результате
			s.logger.Warn().Err(err).Msg("Deep scan failed, keeping regex-sanitized text")
		case strings.TrimSpace(scanned) == "" && strings.TrimSpace(redacted) != "":
			// Пустой ответ на непустой документ — это не редакция, а потеря
			// содержимого; остаёмся на regex-результате
			s.logger.Warn().Msg("Deep scan returned empty result, keeping regex-sanitized text")
		default:
			redacted = scanned
		}
	}

	s.logger.Debug().
		Int("matches", matches).
		Float64("risk_score", score).
		Bool("escalated", escalate).
		Msg("Text sanitized")

	return redacted
}

func applyDetectors(text string) (string, int) {
	matches := 0
	for _, d := range detectors {
		found := d.re.FindAllStringIndex(text, -1)
		if len(found) == 0 {
			continue
		}
		matches += len(found)
		text = d.re.ReplaceAllString(text, d.replacement)
	}
	return text, matches
}

// riskScore — дешёвая эвристика по плотности совпадений и размеру документа.
func riskScore(matches, size int) float64 {
	if matches == 0 || size <= 0 {
		return 0
	}

	kb := float64(size) / 1024.0
	if kb < 1 {
		kb = 1
	}

	density := float64(matches) / kb
	return density*2.0 + float64(matches)*0.5
}
