package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/momenta-tech/go-backend/internal/domain"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// CompressionHandler обрабатывает одну задачу транскодирования в момент диспетчеризации.
type CompressionHandler func(ctx context.Context, job *domain.CompressionJob) error

// compressionItem — элемент очереди; seq обеспечивает FIFO внутри одного приоритета.
type compressionItem struct {
	job *domain.CompressionJob
	seq uint64
}

type compressionHeap []*compressionItem

func (h compressionHeap) Len() int { return len(h) }

func (h compressionHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority < h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}

func (h compressionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *compressionHeap) Push(x any) { *h = append(*h, x.(*compressionItem)) }

func (h *compressionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// CompressionQueue — очередь немедленной диспетчеризации с приоритетами:
// HIGH раньше NORMAL, FIFO внутри приоритета, несколько воркеров на общей очереди.
type CompressionQueue struct {
	mu       sync.Mutex
	heap     compressionHeap
	seq      uint64
	capacity int
	closed   bool
	notify   chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	logger   logger.Logger
}

func NewCompressionQueue(capacity int, logger logger.Logger) *CompressionQueue {
	q := &CompressionQueue{
		heap:     make(compressionHeap, 0),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		logger:   logger,
	}
	heap.Init(&q.heap)

	return q
}

// Enqueue добавляет задачу в очередь. Возвращает ошибку при закрытой или переполненной очереди.
func (q *CompressionQueue) Enqueue(job *domain.CompressionJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return e.ErrQueueClosed
	}

	if q.capacity > 0 && len(q.heap) >= q.capacity {
		q.mu.Unlock()
		return fmt.Errorf("compression queue is full (capacity %d)", q.capacity)
	}

	q.seq++
	heap.Push(&q.heap, &compressionItem{job: job, seq: q.seq})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return nil
}

// Start запускает воркеров, разбирающих очередь. Каждый воркер обрабатывает одну задачу за раз.
func (q *CompressionQueue) Start(ctx context.Context, workers int, handler CompressionHandler) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.runWorker(ctx, handler)
		}()
	}
}

// Stop закрывает очередь и дожидается завершения воркеров.
// Оставшиеся задачи не обрабатываются, их сверка — забота вызывающего.
func (q *CompressionQueue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	close(q.stop)
	q.wg.Wait()
}

// Len возвращает текущее количество задач в очереди.
func (q *CompressionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

func (q *CompressionQueue) runWorker(ctx context.Context, handler CompressionHandler) {
	for {
		job := q.dequeue()
		if job == nil {
			select {
			case <-q.notify:
				continue
			case <-q.stop:
				return
			case <-ctx.Done():
				return
			}
		}

		if err := handler(ctx, job); err != nil {
			q.logger.Warnf("compression job %s failed: %v", job.ID, err)
		}
	}
}

// dequeue извлекает задачу с наименьшим (приоритет, seq) либо nil при пустой очереди.
func (q *CompressionQueue) dequeue() *domain.CompressionJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil
	}

	item := heap.Pop(&q.heap).(*compressionItem)
	return item.job
}
