package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// EmbeddingHandler обрабатывает одну задачу генерации эмбеддинга в момент диспетчеризации.
type EmbeddingHandler func(ctx context.Context, job *domain.EmbeddingJob) error

type embeddingItem struct {
	job *domain.EmbeddingJob
	seq uint64
}

type embeddingHeap []*embeddingItem

func (h embeddingHeap) Len() int { return len(h) }

func (h embeddingHeap) Less(i, j int) bool {
	if !h[i].job.DispatchAt.Equal(h[j].job.DispatchAt) {
		return h[i].job.DispatchAt.Before(h[j].job.DispatchAt)
	}
	return h[i].seq < h[j].seq
}

func (h embeddingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *embeddingHeap) Push(x any) { *h = append(*h, x.(*embeddingItem)) }

func (h *embeddingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EmbeddingScheduler — очередь с диспетчеризацией по настенным часам.
// Гарантирует, что задача не уходит воркеру раньше вычисленного момента,
// с best-effort оперативностью после него.
type EmbeddingScheduler struct {
	mu     sync.Mutex
	heap   embeddingHeap
	seq    uint64
	closed bool
	notify chan struct{}
	stop   chan struct{}
	wg     sync.WaitGroup
	now    func() time.Time
	logger logger.Logger
}

func NewEmbeddingScheduler(logger logger.Logger) *EmbeddingScheduler {
	s := &EmbeddingScheduler{
		heap:   make(embeddingHeap, 0),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		now:    time.Now,
		logger: logger,
	}
	heap.Init(&s.heap)

	return s
}

// ScheduleFor планирует задачу на ближайшее наступление времени суток at ("HH:MM")
// и возвращает вычисленный момент диспетчеризации.
func (s *EmbeddingScheduler) ScheduleFor(job *domain.EmbeddingJob, at string) (time.Time, error) {
	dispatchAt, err := NextOccurrence(s.now(), at)
	if err != nil {
		return time.Time{}, err
	}

	job.DispatchAt = dispatchAt

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return time.Time{}, e.ErrQueueClosed
	}

	s.seq++
	heap.Push(&s.heap, &embeddingItem{job: job, seq: s.seq})
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}

	return dispatchAt, nil
}

// Start запускает диспетчер и воркеров. Диспетчер спит до ближайшего срока,
// воркеры обрабатывают по одной задаче за раз из общего канала.
func (s *EmbeddingScheduler) Start(ctx context.Context, workers int, handler EmbeddingHandler) {
	workCh := make(chan *domain.EmbeddingJob)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(workCh)
		s.runDispatcher(ctx, workCh)
	}()

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for job := range workCh {
				if err := handler(ctx, job); err != nil {
					s.logger.Warnf("embedding job %s failed: %v", job.ID, err)
				}
			}
		}()
	}
}

// Stop закрывает планировщик и дожидается завершения диспетчера и воркеров.
func (s *EmbeddingScheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

// Len возвращает количество запланированных, но не диспетчеризованных задач.
func (s *EmbeddingScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

func (s *EmbeddingScheduler) runDispatcher(ctx context.Context, workCh chan<- *domain.EmbeddingJob) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		job, wait := s.nextDue()

		if job != nil {
			select {
			case workCh <- job:
				continue
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}

		if wait <= 0 {
			// Очередь пуста: ждём нового планирования
			select {
			case <-s.notify:
				continue
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-s.notify:
			if !timer.Stop() {
				<-timer.C
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// nextDue возвращает задачу, чей срок уже наступил, либо время ожидания до ближайшего срока.
// (nil, 0) означает пустую очередь.
func (s *EmbeddingScheduler) nextDue() (*domain.EmbeddingJob, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.heap) == 0 {
		return nil, 0
	}

	earliest := s.heap[0]
	wait := earliest.job.DispatchAt.Sub(s.now())
	if wait > 0 {
		return nil, wait
	}

	item := heap.Pop(&s.heap).(*embeddingItem)
	return item.job, 0
}
