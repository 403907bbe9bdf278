package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	calls    map[models.ExpertiseLevel]int
	failUpTo int // вызовы с номером <= failUpTo падают
	output   func(level models.ExpertiseLevel) string
}

func newFakeBackend(failUpTo int) *fakeBackend {
	return &fakeBackend{
		calls:    make(map[models.ExpertiseLevel]int),
		failUpTo: failUpTo,
		output: func(level models.ExpertiseLevel) string {
			return fmt.Sprintf("# Caching Strategies (%s)\n\nGenerated article about caching.", level)
		},
	}
}

func (f *fakeBackend) GenerateText(_ context.Context, level models.ExpertiseLevel, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls[level]++
	call := f.calls[level]
	f.mu.Unlock()

	if call <= f.failUpTo {
		return "", errors.New("backend unavailable")
	}
	return f.output(level), nil
}

func testGenConfig() config.GenerationConfig {
	return config.GenerationConfig{
		CallTimeout: time.Second,
		RetryCount:  2,
		RetryDelay:  time.Millisecond,
	}
}

func TestGenerateProducesAllThreeLevels(t *testing.T) {
	backend := newFakeBackend(0)
	svc := NewGeneratorService(backend, testGenConfig(), zerolog.Nop())

	set, err := svc.Generate(context.Background(), "Caching notes: TTL, eviction, hit rate.", "Caching Strategies")
	require.NoError(t, err)

	for _, level := range models.AllLevels() {
		content := set.Get(level)
		assert.Contains(t, content, "caching", "level %s must reflect the source notes", level)
		assert.Contains(t, content, level.String())
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	backend := newFakeBackend(1) // первый вызов каждого уровня падает
	svc := NewGeneratorService(backend, testGenConfig(), zerolog.Nop())

	set, err := svc.Generate(context.Background(), "notes", "Title")
	require.NoError(t, err)

	for _, level := range models.AllLevels() {
		assert.NotEmpty(t, set.Get(level))
		assert.Equal(t, 2, backend.calls[level])
	}
}

func TestGenerateExhaustedRetriesFailWholeCall(t *testing.T) {
	backend := newFakeBackend(1000) // падает всегда
	svc := NewGeneratorService(backend, testGenConfig(), zerolog.Nop())

	set, err := svc.Generate(context.Background(), "notes", "Title")
	require.Error(t, err)
	assert.Nil(t, set, "no partial variant set may escape on failure")

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeGenerationUnavailable, pe.Code)
	assert.True(t, pe.Code.Retryable())
}

func TestGenerateRejectsStructurelessOutput(t *testing.T) {
	backend := newFakeBackend(0)
	backend.output = func(models.ExpertiseLevel) string { return "flat single line without structure" }
	svc := NewGeneratorService(backend, testGenConfig(), zerolog.Nop())

	_, err := svc.Generate(context.Background(), "notes", "Title")
	require.Error(t, err)

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeGenerationUnavailable, pe.Code)
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	backend := newFakeBackend(1000)
	cfg := testGenConfig()
	cfg.RetryDelay = time.Minute // ретраи зависли бы без отмены
	svc := NewGeneratorService(backend, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, "notes", "Title")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Generate did not return after context cancellation")
	}
}

func TestValidateOutput(t *testing.T) {
	assert.Error(t, validateOutput(""))
	assert.Error(t, validateOutput("one flat line"))
	assert.NoError(t, validateOutput("# Title\n\nbody"))
	assert.NoError(t, validateOutput("para one\n\npara two"))
}
