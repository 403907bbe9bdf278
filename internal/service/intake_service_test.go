package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

func newTestIntake() IntakeService {
	return NewIntakeService(config.IntakeConfig{
		MaxUploadSize:  1 << 20,
		FetchTimeout:   5 * time.Second,
		MaxRedirects:   3,
		AllowedSchemes: []string{"http", "https"},
	}, zerolog.Nop())
}

func errorCode(t *testing.T, err error) models.ErrorCode {
	t.Helper()
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe), "expected PipelineError, got %v", err)
	return pe.Code
}

func TestValidateRequestText(t *testing.T) {
	s := newTestIntake()

	t.Run("valid text accepted", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "text", Payload: "# Notes\n\nbody"})
		assert.NoError(t, err)
	})

	t.Run("whitespace only rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "text", Payload: "   \n\t  "})
		assert.Equal(t, models.ErrCodeValidation, errorCode(t, err))
	})

	t.Run("oversized payload rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{
			SourceKind: "text",
			Payload:    strings.Repeat("a", (1<<20)+1),
		})
		assert.Equal(t, models.ErrCodeValidation, errorCode(t, err))
	})

	t.Run("unknown source kind rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "carrier-pigeon", Payload: "x"})
		assert.Equal(t, models.ErrCodeValidation, errorCode(t, err))
	})
}

func TestValidateRequestFile(t *testing.T) {
	s := newTestIntake()

	t.Run("markdown file accepted", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{
			SourceKind:  "file",
			Filename:    "notes.md",
			FileContent: []byte("# Notes"),
		})
		assert.NoError(t, err)
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{
			SourceKind:  "file",
			Filename:    "notes.pdf",
			FileContent: []byte("%PDF-1.4"),
		})
		assert.Equal(t, models.ErrCodeUnsupportedFormat, errorCode(t, err))
	})

	t.Run("binary content rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{
			SourceKind:  "file",
			Filename:    "notes.txt",
			FileContent: []byte{0xff, 0xfe, 0x00, 0x01},
		})
		assert.Equal(t, models.ErrCodeUnsupportedFormat, errorCode(t, err))
	})

	t.Run("empty file rejected", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{
			SourceKind:  "file",
			Filename:    "notes.md",
			FileContent: []byte("   "),
		})
		assert.Equal(t, models.ErrCodeValidation, errorCode(t, err))
	})
}

func TestValidateRequestURLPolicy(t *testing.T) {
	s := newTestIntake()

	tests := []struct {
		name string
		url  string
		code models.ErrorCode
	}{
		{"private address", "http://10.0.0.1/internal", models.ErrCodeUnsafeURL},
		{"loopback", "http://127.0.0.1/admin", models.ErrCodeUnsafeURL},
		{"link local", "http://169.254.169.254/latest/meta-data/", models.ErrCodeUnsafeURL},
		{"forbidden scheme", "ftp://example.com/file.md", models.ErrCodeUnsafeURL},
		{"missing host", "http:///path", models.ErrCodeUnsafeURL},
		{"empty url", "", models.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "url", Payload: tt.url})
			assert.Equal(t, tt.code, errorCode(t, err))
		})
	}

	t.Run("public url passes policy", func(t *testing.T) {
		err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "url", Payload: "https://example.com/article"})
		assert.NoError(t, err)
	})
}

func TestValidateRequestHostAllowList(t *testing.T) {
	s := NewIntakeService(config.IntakeConfig{
		MaxUploadSize:  1 << 20,
		AllowedSchemes: []string{"https"},
		AllowedHosts:   []string{"docs.example.com"},
	}, zerolog.Nop())

	err := s.ValidateRequest(&models.SubmitRequest{SourceKind: "url", Payload: "https://other.example.com/page"})
	assert.Equal(t, models.ErrCodeUnsafeURL, errorCode(t, err))

	err = s.ValidateRequest(&models.SubmitRequest{SourceKind: "url", Payload: "https://docs.example.com/page"})
	assert.NoError(t, err)
}

func TestNormalizeText(t *testing.T) {
	s := newTestIntake()

	got, err := s.Normalize(context.Background(), &models.SubmitRequest{
		SourceKind: "text",
		Payload:    "# My Notes\n\ncontent",
	})
	require.NoError(t, err)
	assert.Equal(t, "# My Notes\n\ncontent", got.Content)
}

func TestNormalizeURLFetch(t *testing.T) {
	t.Run("plain text body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("# Fetched Notes\n\nsome content"))
		}))
		defer srv.Close()

		got, err := newLocalIntake().Normalize(context.Background(), &models.SubmitRequest{
			SourceKind: "url",
			Payload:    srv.URL,
		})
		require.NoError(t, err)
		assert.Contains(t, got.Content, "Fetched Notes")
	})

	t.Run("html body stripped to text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><title>Page Title</title><script>evil()</script></head><body><p>visible text</p></body></html>`))
		}))
		defer srv.Close()

		got, err := newLocalIntake().Normalize(context.Background(), &models.SubmitRequest{
			SourceKind: "url",
			Payload:    srv.URL,
		})
		require.NoError(t, err)
		assert.Contains(t, got.Content, "visible text")
		assert.NotContains(t, got.Content, "evil()")
		assert.Equal(t, "Page Title.md", got.Filename)
	})

	t.Run("remote error mapped to FetchFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newLocalIntake().Normalize(context.Background(), &models.SubmitRequest{
			SourceKind: "url",
			Payload:    srv.URL,
		})
		assert.Equal(t, models.ErrCodeFetchFailed, errorCode(t, err))
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(strings.Repeat("a", 2048)))
		}))
		defer srv.Close()

		small := NewIntakeService(config.IntakeConfig{
			MaxUploadSize:  1024,
			FetchTimeout:   5 * time.Second,
			AllowedSchemes: []string{"http"},
			AllowedHosts:   []string{"127.0.0.1"},
		}, zerolog.Nop())

		_, err := small.Normalize(context.Background(), &models.SubmitRequest{
			SourceKind: "url",
			Payload:    srv.URL,
		})
		assert.Equal(t, models.ErrCodeValidation, errorCode(t, err))
	})
}

// newLocalIntake разрешает loopback-адреса, чтобы ходить в httptest-сервер.
func newLocalIntake() IntakeService {
	return NewIntakeService(config.IntakeConfig{
		MaxUploadSize:  1 << 20,
		FetchTimeout:   5 * time.Second,
		MaxRedirects:   3,
		AllowedSchemes: []string{"http"},
		AllowedHosts:   []string{"127.0.0.1"},
	}, zerolog.Nop())
}
