package worker

import (
	"context"
	"sync"
	"time"
)

const DefaultTimeout = 10 * time.Second

// Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	tasks   chan Task
	quit    chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	once    sync.Once
}

type Task struct {
	Ctx  context.Context
	Work func(ctx context.Context) error
	// Done, if set, is called after Work returns or the task is dropped.
	Done func(err error)
}

func NewPool(maxWorkers, queueSize int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	p := &Pool{
		tasks:   make(chan Task, queueSize),
		quit:    make(chan struct{}),
		timeout: DefaultTimeout,
	}

	p.wg.Add(maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

func (p *Pool) run(task Task) {
	ctx := task.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var err error
	if err = ctx.Err(); err == nil {
		err = task.Work(ctx)
	}
	if task.Done != nil {
		task.Done(err)
	}
}

// Submit queues a task. It reports false, without calling Done, when the
// queue is full or the pool has been shut down.
func (p *Pool) Submit(task Task) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops the workers and waits for running tasks to return. Queued
// tasks are dropped with context.Canceled.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
		for {
			select {
			case task := <-p.tasks:
				if task.Done != nil {
					task.Done(context.Canceled)
				}
			default:
				return
			}
		}
	})
}
