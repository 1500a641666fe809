package task

import (
	"log"
	"sync"
	"sync/atomic"
)

// Pool runs submitted tasks on a fixed set of workers over a buffered queue.
// It bounds the fan-out of webhook-launched work: when the queue is full the
// task is dropped (and logged) rather than queued without limit.
type Pool struct {
	queue   chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

// NewPool creates and starts a pool. Non-positive sizes fall back to
// 8 workers over a 64-slot queue.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 8
	}
	if queueSize < 1 {
		queueSize = 64
	}

	p := &Pool{queue: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		task()
	}
}

// Submit enqueues a task for background execution. Returns false if the
// task was dropped (queue full or pool stopped). The caller never waits on
// or observes the task's outcome.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.queue <- task:
		return true
	default:
		n := p.dropped.Add(1)
		log.Printf("[Task] queue full, dropping task (%d dropped so far)", n)
		return false
	}
}

// Dropped returns how many tasks were rejected because the queue was full.
func (p *Pool) Dropped() int64 {
	return p.dropped.Load()
}

// Stop prevents new submissions and waits for in-flight tasks to finish.
// Call only during shutdown, after the webhook server stops accepting.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
