package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

var ErrExecutorStopped = errors.New("executor stopped")

// Job is a unit of CPU-bound work with its own result channel
type Job struct {
	Task   func() (any, error)
	result chan JobResult
}

// JobResult represents the result of a job
type JobResult struct {
	Result any
	Err    error
}

// Executor runs graph builds and route searches on a fixed set of goroutines
// so request handlers never run them inline.
type Executor struct {
	maxWorkers int
	jobQueue   chan Job
	quit       chan struct{}
	wg         sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

func NewExecutor(maxWorkers int) *Executor {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, maxWorkers),
		quit:       make(chan struct{}),
	}
}

func (e *Executor) Workers() int {
	return e.maxWorkers
}

func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	for i := 0; i < e.maxWorkers; i++ {
		e.wg.Add(1)
		go e.work()
	}
}

func (e *Executor) work() {
	defer e.wg.Done()
	for {
		select {
		case job := <-e.jobQueue:
			res, err := job.Task()
			job.result <- JobResult{Result: res, Err: err}
		case <-e.quit:
			return
		}
	}
}

// Stop waits for in-flight jobs to finish. Queued jobs that were not picked up are abandoned
// and every caller still waiting gets ErrExecutorStopped.
func (e *Executor) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.quit)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Executor) submit(ctx context.Context, task func() (any, error)) (any, error) {
	e.mu.RLock()
	running := e.running
	e.mu.RUnlock()
	if !running {
		return nil, ErrExecutorStopped
	}

	job := Job{Task: task, result: make(chan JobResult, 1)}
	select {
	case e.jobQueue <- job:
	case <-e.quit:
		return nil, ErrExecutorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.Result, res.Err
	case <-e.quit:
		return nil, ErrExecutorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run executes task on the executor and waits for its result.
// A nil executor runs the task on the calling goroutine.
func Run[T any](ctx context.Context, e *Executor, task func() (T, error)) (T, error) {
	if e == nil {
		return task()
	}

	var zero T
	res, err := e.submit(ctx, func() (any, error) {
		return task()
	})
	if err != nil {
		return zero, err
	}
	out, ok := res.(T)
	if !ok {
		return zero, nil
	}
	return out, nil
}
