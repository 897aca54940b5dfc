// Package parallel runs independent row computations on a fixed set of
// goroutines.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// MaxWorkers bounds the pool size.
const MaxWorkers = 1 << 16

// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// WorkerPool runs submitted tasks on a fixed number of goroutines. A task
// that panics does not take its worker down; the first panic is kept and
// returned by Close.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards taskQueue against a send racing Close
	closed    bool

	errMu sync.Mutex
	err   error
}

// NewWorkerPool starts workers goroutines. Zero or less means GOMAXPROCS.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.errMu.Lock()
			if wp.err == nil {
				wp.err = fmt.Errorf("task panicked: %v", r)
			}
			wp.errMu.Unlock()
		}
	}()
	task()
}

// Submit queues a task. It returns false once the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks, waits for the queued ones and returns the
// first task panic, if any. It is safe to call more than once.
func (wp *WorkerPool) Close() error {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()

	wp.errMu.Lock()
	defer wp.errMu.Unlock()
	return wp.err
}

// Rows calls fn(i) for every i in [0, n) on up to workers goroutines and
// waits for all of them. fn must only write state owned by row i.
func Rows(n, workers int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return nil
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := i
		pool.Submit(func() { fn(row) })
	}
	return pool.Close()
}
