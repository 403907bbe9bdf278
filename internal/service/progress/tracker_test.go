package progress

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

func event(id, step string, pct int, terminal bool) models.ProgressEvent {
	return models.ProgressEvent{
		SubmissionID: id,
		Step:         step,
		Percentage:   pct,
		Terminal:     terminal,
	}
}

func TestSubscribeUnknownSubmission(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())

	_, _, err := tr.Subscribe("no-such-id")
	assert.ErrorIs(t, err, ErrUnknownSubmission)
}

func TestPublishDeliversInOrder(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	events, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)
	defer cancel()

	tr.Publish(event("sub-1", "received", 0, false))
	tr.Publish(event("sub-1", "sanitizing", 10, false))
	tr.Publish(event("sub-1", "generating", 25, false))
	tr.Publish(event("sub-1", "completed", 100, true))

	var got []models.ProgressEvent
	for e := range events {
		got = append(got, e)
	}

	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Percentage, got[i-1].Percentage)
	}
	assert.True(t, got[len(got)-1].Terminal)
}

func TestPublishClampsPercentage(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	events, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)
	defer cancel()

	tr.Publish(event("sub-1", "generating", 50, false))
	tr.Publish(event("sub-1", "generating", 30, false)) // регресс процента
	tr.Publish(event("sub-1", "completed", 100, true))

	var got []models.ProgressEvent
	for e := range events {
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, 50, got[1].Percentage)
}

func TestPublishIgnoredAfterTerminal(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	tr.Publish(event("sub-1", "failed", 10, true))
	tr.Publish(event("sub-1", "completed", 100, true))

	last, ok := tr.LastEvent("sub-1")
	require.True(t, ok)
	assert.Equal(t, "failed", last.Step)
}

func TestLateSubscribeReplaysTerminal(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	tr.Publish(event("sub-1", "received", 0, false))
	tr.Publish(event("sub-1", "completed", 100, true))

	events, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)
	defer cancel()

	replayed, ok := <-events
	require.True(t, ok)
	assert.True(t, replayed.Terminal)
	assert.Equal(t, "completed", replayed.Step)

	_, open := <-events
	assert.False(t, open)
}

func TestSubscribeSnapshotsLastEvent(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	tr.Publish(event("sub-1", "generating", 25, false))

	events, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)
	defer cancel()

	snapshot := <-events
	assert.Equal(t, "generating", snapshot.Step)
	assert.Equal(t, 25, snapshot.Percentage)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	tr := NewTracker(1, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	_, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Никто не читает канал, буфер на одно событие
		for i := 0; i < 100; i++ {
			tr.Publish(event("sub-1", "generating", i, false))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")

	_, cancel, err := tr.Subscribe("sub-1")
	require.NoError(t, err)

	cancel()
	assert.NotPanics(t, func() { cancel() })
}

func TestRegisterRestartsTerminalStream(t *testing.T) {
	tr := NewTracker(16, time.Minute, zerolog.Nop())
	tr.Register("sub-1")
	tr.Publish(event("sub-1", "failed", 0, true))

	// Повторная регистрация поверх терминального потока даёт чистую историю
	tr.Register("sub-1")
	tr.Publish(event("sub-1", "received", 0, false))

	last, ok := tr.LastEvent("sub-1")
	require.True(t, ok)
	assert.Equal(t, "received", last.Step)
	assert.False(t, last.Terminal)
}

func TestTerminalStreamEvictedAfterRetention(t *testing.T) {
	tr := NewTracker(16, 20*time.Millisecond, zerolog.Nop())
	tr.Register("sub-1")
	tr.Publish(event("sub-1", "completed", 100, true))

	assert.Eventually(t, func() bool {
		_, _, err := tr.Subscribe("sub-1")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
