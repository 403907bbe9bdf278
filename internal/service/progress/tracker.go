package progress

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

var ErrUnknownSubmission = errors.New("unknown submission")

// Tracker ведёт поток ProgressEvent по каждой submission и раздаёт его
// подписчикам. Доставка fire-and-forget: медленный подписчик теряет
// промежуточные события, но никогда не тормозит пайплайн.
type Tracker struct {
	mu        sync.Mutex
	streams   map[string]*stream
	bufSize   int
	retention time.Duration
	logger    zerolog.Logger
}

type stream struct {
	last        *models.ProgressEvent
	terminal    bool
	subscribers map[int]chan models.ProgressEvent
	nextSubID   int
}

func NewTracker(bufSize int, retention time.Duration, logger zerolog.Logger) *Tracker {
	if bufSize <= 0 {
		bufSize = 16
	}
	if retention <= 0 {
		retention = 10 * time.Minute
	}

	return &Tracker{
		streams:   make(map[string]*stream),
		bufSize:   bufSize,
		retention: retention,
		logger:    logger,
	}
}

// Register создаёт поток для новой submission. Вызывается оркестратором
// до первого события, чтобы подписка была возможна с момента приёма.
// Поверх терминального потока начинается новый: повторная подача id,
// отклонённого до запуска пайплайна, получает чистую историю.
func (t *Tracker) Register(submissionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.streams[submissionID]; ok && !s.terminal {
		return
	}
	t.streams[submissionID] = &stream{
		subscribers: make(map[int]chan models.ProgressEvent),
	}
}

// Publish доставляет событие подписчикам. Проценты внутри одной submission
// монотонно неубывающие; события после терминального игнорируются.
func (t *Tracker) Publish(event models.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.streams[event.SubmissionID]
	if !ok {
		t.logger.Warn().
			Str("submission_id", event.SubmissionID).
			Msg("Progress event for unregistered submission dropped")
		return
	}

	if s.terminal {
		return
	}

	if s.last != nil && event.Percentage < s.last.Percentage {
		event.Percentage = s.last.Percentage
	}

	s.last = &event
	if event.Terminal {
		s.terminal = true
	}

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			t.logger.Debug().
				Str("submission_id", event.SubmissionID).
				Int("subscriber", id).
				Msg("Subscriber buffer full, event dropped")
		}
		if event.Terminal {
			close(ch)
		}
	}

	if event.Terminal {
		s.subscribers = make(map[int]chan models.ProgressEvent)

		// Терминальный поток хранится для replay поздним подписчикам,
		// затем выбрасывается. Удаляем только этот поток: к моменту
		// срабатывания id мог быть перерегистрирован заново
		submissionID := event.SubmissionID
		time.AfterFunc(t.retention, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if cur, ok := t.streams[submissionID]; ok && cur == s {
				delete(t.streams, submissionID)
			}
		})
	}
}

// Subscribe подключает слушателя по submission id. Если терминальное событие
// уже случилось, подписчик немедленно получает его replay и закрытый канал —
// переподключившийся клиент не зависает.
func (t *Tracker) Subscribe(submissionID string) (<-chan models.ProgressEvent, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.streams[submissionID]
	if !ok {
		return nil, nil, ErrUnknownSubmission
	}

	if s.terminal {
		ch := make(chan models.ProgressEvent, 1)
		ch <- *s.last
		close(ch)
		return ch, func() {}, nil
	}

	ch := make(chan models.ProgressEvent, t.bufSize)
	if s.last != nil {
		// Снимок последнего известного состояния при подключении
		ch <- *s.last
	}

	subID := s.nextSubID
	s.nextSubID++
	s.subscribers[subID] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if cur, ok := t.streams[submissionID]; ok {
			if _, live := cur.subscribers[subID]; live {
				delete(cur.subscribers, subID)
				close(ch)
			}
		}
	}

	return ch, cancel, nil
}

// LastEvent возвращает последнее опубликованное событие, если оно есть.
func (t *Tracker) LastEvent(submissionID string) (*models.ProgressEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.streams[submissionID]
	if !ok || s.last == nil {
		return nil, false
	}

	event := *s.last
	return &event, true
}
