package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDisabledPassesThrough(t *testing.T) {
	c := NewDeepScanClient("", time.Second, 2, time.Millisecond, zerolog.Nop())

	got, err := c.Scan(context.Background(), "original text")
	require.NoError(t, err)
	assert.Equal(t, "original text", got)
}

func TestScanReturnsRedactedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/scan", r.URL.Path)
		w.Write([]byte(`{"redacted_content":"clean text","findings":2}`))
	}))
	defer srv.Close()

	c := NewDeepScanClient(srv.URL, time.Second, 2, time.Millisecond, zerolog.Nop())

	got, err := c.Scan(context.Background(), "dirty text")
	require.NoError(t, err)
	assert.Equal(t, "clean text", got)
}

func TestScanRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"redacted_content":"clean","findings":0}`))
	}))
	defer srv.Close()

	c := NewDeepScanClient(srv.URL, time.Second, 3, time.Millisecond, zerolog.Nop())

	got, err := c.Scan(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "clean", got)
	assert.Equal(t, 3, calls)
}

func TestScanBackoffHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Паузы между попытками заведомо длиннее дедлайна
	c := NewDeepScanClient(srv.URL, time.Second, 3, 10*time.Second, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.Scan(ctx, "text")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Scan did not return after context cancellation")
	}
}
