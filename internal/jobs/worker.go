package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sjperalta/studio-finance-api/pkg/logger"
)

// ErrStopped is returned when a job is submitted after Shutdown
var ErrStopped = errors.New("worker is shut down")

// Job represents a background task
type Job func(ctx context.Context) error

// Worker manages background jobs and scheduled tasks
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan namedJob
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
	closeOnce     sync.Once
	queueMu       sync.RWMutex
	stopped       bool
	log           *slog.Logger
}

type namedJob struct {
	name string
	run  Job
}

// WorkerStats holds statistics about the worker. CompletedJobs counts every
// finished job; FailedJobs is the subset that returned an error or panicked.
type WorkerStats struct {
	ActiveJobs    int                  `json:"active_jobs"`
	CompletedJobs int64                `json:"completed_jobs"`
	FailedJobs    int64                `json:"failed_jobs"`
	QueueLength   int                  `json:"queue_length"`
	MaxConcurrent int                  `json:"max_concurrent"`
	LastRun       map[string]time.Time `json:"last_run"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	// Allow 2x workers for async jobs
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan namedJob, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
		stats:         WorkerStats{LastRun: make(map[string]time.Time)},
		log:           logger.With("component", "worker"),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to the worker pool queue. When the queue is full the
// job runs synchronously on the caller's goroutine.
func (w *Worker) Enqueue(name string, job Job) error {
	nj := namedJob{name: name, run: job}

	w.queueMu.RLock()
	if w.stopped {
		w.queueMu.RUnlock()
		return ErrStopped
	}
	select {
	case w.queue <- nj:
		w.queueMu.RUnlock()
		return nil
	default:
	}
	w.queueMu.RUnlock()

	w.log.Warn("queue full, running job synchronously", "job", name)
	w.run(nj, "sync")
	return nil
}

// EnqueueAsync runs a job in its own goroutine, bounded by a semaphore
func (w *Worker) EnqueueAsync(name string, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()

		w.run(namedJob{name: name, run: job}, "async")
	}()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case nj, ok := <-w.queue:
			if !ok {
				return
			}
			w.run(nj, "pool", slog.Int("worker_id", workerID))
		}
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, job, false)
}

// ScheduleEveryImmediate runs a job once at startup, then at fixed intervals,
// so a restarted process does not wait a full interval for fresh data.
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, job, true)
}

func (w *Worker) schedule(name string, interval time.Duration, job Job, immediate bool) {
	nj := namedJob{name: name, run: job}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run(nj, "scheduler")
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run(nj, "scheduler")
			}
		}
	}()
}

// run executes one job with stats tracking and panic recovery
func (w *Worker) run(nj namedJob, source string, attrs ...any) {
	log := w.log.With(append([]any{"job", nj.name, "source", source}, attrs...)...)

	w.trackJobStart()
	start := time.Now()
	failed := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panic", "panic", r)
			failed = true
		}
		w.trackJobEnd(nj.name, failed)
	}()

	if err := nj.run(w.ctx); err != nil {
		log.Error("job failed", "error", err, "elapsed", time.Since(start))
		failed = true
		return
	}
	log.Debug("job completed", "elapsed", time.Since(start))
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.closeOnce.Do(func() {
		w.queueMu.Lock()
		w.stopped = true
		close(w.queue)
		w.queueMu.Unlock()

		w.cancel()
		w.wg.Wait()
	})
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.LastRun = make(map[string]time.Time, len(w.stats.LastRun))
	for k, v := range w.stats.LastRun {
		stats.LastRun[k] = v
	}
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd(name string, failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if failed {
		w.stats.FailedJobs++
	}
	w.stats.LastRun[name] = time.Now()
}
