package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DeepScanClient — клиент внешнего сервиса PII-детекции, второй (дорогой)
// проход санитизации для документов с высоким риском.
type DeepScanClient interface {
	Enabled() bool
	Scan(ctx context.Context, content string) (string, error)
}

type deepScanClient struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

type deepScanRequest struct {
	Content string `json:"content"`
}

type deepScanResponse struct {
	RedactedContent string `json:"redacted_content"`
	Findings        int    `json:"findings"`
}

func NewDeepScanClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) DeepScanClient {
	return &deepScanClient{
		baseURL:    baseURL,
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *deepScanClient) Enabled() bool {
	return c.baseURL != ""
}

func (c *deepScanClient) Scan(ctx context.Context, content string) (string, error) {
	if !c.Enabled() {
		return content, nil
	}

	body, err := json.Marshal(deepScanRequest{Content: content})
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan request: %w", err)
	}

	// Выполняем запрос с повторными попытками
	var resp *http.Response
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Msg("Retrying deep scan")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/scan", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
			if lastErr == nil {
				lastErr = fmt.Errorf("scan service returned status %d", resp.StatusCode)
			}
			resp = nil
		}
	}

	if resp == nil {
		return "", fmt.Errorf("deep scan failed after %d attempts: %w", c.retryCount+1, lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read scan response: %w", err)
	}

	var scanResp deepScanResponse
	if err := json.Unmarshal(respBody, &scanResp); err != nil {
		return "", fmt.Errorf("failed to decode scan response: %w", err)
	}

	c.logger.Debug().
		Int("findings", scanResp.Findings).
		Msg("Deep scan completed")

	return scanResp.RedactedContent, nil
}
