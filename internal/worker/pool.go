package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrQueueFull = errors.New("worker pool queue is full")

type Task func()

// Pool выполняет задачи пайплайна на фиксированном числе воркеров.
type Pool struct {
	tasks      chan Task
	wg         sync.WaitGroup
	active     int
	maxWorkers int
	logger     zerolog.Logger
	mu         sync.RWMutex
}

func NewPool(maxWorkers int, logger zerolog.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	return &Pool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (p *Pool) Start(ctx context.Context) error {
	p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return nil
}

func (p *Pool) Stop() error {
	p.logger.Info().Msg("Stopping worker pool")

	close(p.tasks)
	p.wg.Wait()

	p.logger.Info().Msg("Worker pool stopped")
	return nil
}

// Submit ставит задачу в очередь. При заполненной очереди ждёт ограниченное
// время и возвращает ErrQueueFull — задача никогда не теряется молча.
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		p.logger.Warn().Msg("Worker pool task queue is full")
		select {
		case p.tasks <- task:
			return nil
		case <-time.After(1 * time.Second):
			p.logger.Error().Msg("Failed to submit task to worker pool (timeout)")
			return ErrQueueFull
		}
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range p.tasks {
		p.mu.Lock()
		p.active++
		p.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error().
						Int("worker_id", id).
						Interface("panic", r).
						Msg("Worker recovered from panic")
				}

				p.mu.Lock()
				p.active--
				p.mu.Unlock()
			}()

			task()
		}()
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) ActiveWorkers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

func (p *Pool) QueueLength() int {
	return len(p.tasks)
}
