package crowd

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// JobPool runs index-partitioned, run-to-completion CPU work on a bounded set of
// reusable goroutines. Workers persist across frames while busy and exit after
// the idle timeout.
type JobPool struct {
	pool      worker.DynamicWorkerPool
	workers   int
	batchSize int
	nextID    atomic.Int64
}

func NewJobPool(cfg JobsConfig) *JobPool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 32
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 256
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultConfig().Jobs.IdleTimeout
	}
	return &JobPool{
		pool:      worker.NewDynamicWorkerPool(workers, queue, idle),
		workers:   workers,
		batchSize: batch,
	}
}

func (p *JobPool) Workers() int {
	return p.workers
}

// BatchSize is the default number of indices handed to one task.
func (p *JobPool) BatchSize() int {
	return p.batchSize
}

// Group starts a set of jobs that share one barrier.
func (p *JobPool) Group() *JobGroup {
	return &JobGroup{pool: p}
}

// JobGroup is a barrier over every range scheduled on it. A panic inside a task is
// captured and re-raised by Wait on the caller's goroutine.
type JobGroup struct {
	pool *JobPool
	wg   sync.WaitGroup

	faultOnce sync.Once
	fault     any
}

// Schedule splits [0,n) into ranges of at most batch indices and submits one task per
// range. Each index is visited by exactly one task.
func (g *JobGroup) Schedule(n, batch int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batch <= 0 {
		batch = g.pool.batchSize
	}
	// keep the task count proportional to the worker count for huge sets
	if maxTasks := g.pool.workers * 8; (n+batch-1)/batch > maxTasks {
		batch = (n + maxTasks - 1) / maxTasks
	}

	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		g.wg.Add(1)
		s, e := start, end
		g.pool.pool.SubmitTask(worker.Task{
			ID: int(g.pool.nextID.Add(1)),
			Do: func() (any, error) {
				defer g.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						g.faultOnce.Do(func() { g.fault = r })
					}
				}()
				fn(s, e)
				return nil, nil
			},
		})
	}
}

// Wait blocks until every scheduled range has finished.
func (g *JobGroup) Wait() {
	g.wg.Wait()
	if g.fault != nil {
		panic(fmt.Sprintf("job fault: %v", g.fault))
	}
}
