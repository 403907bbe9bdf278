package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// CanonicalText — нормализованная текстовая форма любого вида входа,
// до санитизации. Живёт только в памяти, не персистится.
type CanonicalText struct {
	Content  string
	Filename string
}

type IntakeService interface {
	// ValidateRequest — дешёвые проверки (пустой ввод, размер, формат,
	// политика URL), выполняемые синхронно до создания Submission.
	ValidateRequest(req *models.SubmitRequest) error
	// Normalize приводит вход к каноническому тексту; для url выполняет fetch.
	Normalize(ctx context.Context, req *models.SubmitRequest) (*CanonicalText, error)
}

type intakeService struct {
	cfg    config.IntakeConfig
	client *http.Client
	logger zerolog.Logger
}

func NewIntakeService(cfg config.IntakeConfig, logger zerolog.Logger) IntakeService {
	client := &http.Client{
		Timeout: cfg.FetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &intakeService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

func (s *intakeService) ValidateRequest(req *models.SubmitRequest) error {
	if !models.IsValidSourceKind(req.SourceKind) {
		return models.NewPipelineError(models.ErrCodeValidation, "source_kind must be one of text, file, url", nil)
	}

	switch models.SourceKind(req.SourceKind) {
	case models.SourceKindText:
		if strings.TrimSpace(req.Payload) == "" {
			return models.NewPipelineError(models.ErrCodeValidation, "input is empty", nil)
		}
		if int64(len(req.Payload)) > s.cfg.MaxUploadSize {
			return models.NewPipelineError(models.ErrCodeValidation,
				fmt.Sprintf("payload exceeds %d byte limit", s.cfg.MaxUploadSize), nil)
		}

	case models.SourceKindFile:
		ext := strings.ToLower(filepath.Ext(req.Filename))
		if !supportedExtensions[ext] {
			return models.NewPipelineError(models.ErrCodeUnsupportedFormat,
				fmt.Sprintf("unsupported file format %q, expected .md, .markdown or .txt", ext), nil)
		}
		if int64(len(req.FileContent)) > s.cfg.MaxUploadSize {
			return models.NewPipelineError(models.ErrCodeValidation,
				fmt.Sprintf("payload exceeds %d byte limit", s.cfg.MaxUploadSize), nil)
		}
		if !utf8.Valid(req.FileContent) {
			return models.NewPipelineError(models.ErrCodeUnsupportedFormat, "file content is not valid UTF-8 text", nil)
		}
		if strings.TrimSpace(string(req.FileContent)) == "" {
			return models.NewPipelineError(models.ErrCodeValidation, "input is empty", nil)
		}

	case models.SourceKindURL:
		// Политика проверяется до любого сетевого обращения
		if err := s.validateURLPolicy(req.Payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *intakeService) Normalize(ctx context.Context, req *models.SubmitRequest) (*CanonicalText, error) {
	if err := s.ValidateRequest(req); err != nil {
		return nil, err
	}

	switch models.SourceKind(req.SourceKind) {
	case models.SourceKindText:
		return &CanonicalText{Content: req.Payload, Filename: "note.md"}, nil

	case models.SourceKindFile:
		return &CanonicalText{Content: string(req.FileContent), Filename: req.Filename}, nil

	case models.SourceKindURL:
		return s.fetchURL(ctx, req.Payload)

	default:
		return nil, models.NewPipelineError(models.ErrCodeValidation, "unknown source kind", nil)
	}
}

func (s *intakeService) validateURLPolicy(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return models.NewPipelineError(models.ErrCodeValidation, "url is empty", nil)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeValidation, "url is not parseable", err)
	}

	schemeAllowed := false
	for _, scheme := range s.cfg.AllowedSchemes {
		if parsed.Scheme == scheme {
			schemeAllowed = true
			break
		}
	}
	if !schemeAllowed {
		return models.NewPipelineError(models.ErrCodeUnsafeURL,
			fmt.Sprintf("scheme %q is not allowed", parsed.Scheme), nil)
	}

	host := parsed.Hostname()
	if host == "" {
		return models.NewPipelineError(models.ErrCodeUnsafeURL, "url has no host", nil)
	}

	// Непустой allow-list — явное доверие: хост из списка пропускается
	// без проверки маршрутизируемости, всё остальное отклоняется
	if len(s.cfg.AllowedHosts) > 0 {
		for _, h := range s.cfg.AllowedHosts {
			if strings.EqualFold(host, h) {
				return nil
			}
		}
		return models.NewPipelineError(models.ErrCodeUnsafeURL,
			fmt.Sprintf("host %q is not in the allow-list", host), nil)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return models.NewPipelineError(models.ErrCodeUnsafeURL,
				fmt.Sprintf("address %s is not publicly routable", host), nil)
		}
	}

	return nil
}

func (s *intakeService) fetchURL(ctx context.Context, rawURL string) (*CanonicalText, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeFetchFailed, "failed to build request", err)
	}
	req.Header.Set("Accept", "text/html, text/markdown, text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeFetchFailed, "failed to fetch url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewPipelineError(models.ErrCodeFetchFailed,
			fmt.Sprintf("remote returned status %d", resp.StatusCode), nil)
	}

	// +1 байт, чтобы отличить «ровно лимит» от «превышен»
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxUploadSize+1))
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeFetchFailed, "failed to read response body", err)
	}
	if int64(len(body)) > s.cfg.MaxUploadSize {
		return nil, models.NewPipelineError(models.ErrCodeValidation,
			fmt.Sprintf("fetched content exceeds %d byte limit", s.cfg.MaxUploadSize), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	content := string(body)
	filename := "note.md"

	if strings.Contains(contentType, "text/html") {
		extracted, title := extractMainText(content)
		content = extracted
		if title != "" {
			filename = title + ".md"
		}
	}

	if strings.TrimSpace(content) == "" {
		return nil, models.NewPipelineError(models.ErrCodeFetchFailed, "fetched page contains no textual content", nil)
	}

	s.logger.Debug().
		Str("url", rawURL).
		Int("bytes", len(body)).
		Str("content_type", contentType).
		Msg("URL content fetched")

	return &CanonicalText{Content: content, Filename: filename}, nil
}

var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"nav":      true,
	"footer":   true,
	"form":     true,
}

// extractMainText вытаскивает основной текст страницы и её title.
func extractMainText(rawHTML string) (string, string) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, ""
	}

	var sb strings.Builder
	var title string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedTags[n.Data] {
				return
			}
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String()), title
}
