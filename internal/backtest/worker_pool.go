package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/quantduc/crossover-bot/pkg/config"
)

// WorkerPool manages parallel evaluation of parameter combinations. Workers
// share one read-only Evaluator; each job's frame, ledger, and equity curve
// are private to the worker that produced them.
type WorkerPool struct {
	workerCount int
	evaluator   *Evaluator
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// Job is a single parameter combination to evaluate.
type Job struct {
	ID     int
	Params config.StrategyParams
}

// Result is the outcome of one job. Err is set for failed combinations;
// failed results still flow through the result queue so the batch count
// always matches the job count.
type Result struct {
	ID       int
	Params   config.StrategyParams
	Results  *BacktestResults
	Metrics  Metrics
	Duration time.Duration
	Err      error
}

// Failed reports whether the combination failed to evaluate.
func (r Result) Failed() bool { return r.Err != nil }

// NewWorkerPool creates a pool of workerCount workers over the evaluator.
// A non-positive count defaults to the number of CPUs.
func NewWorkerPool(ctx context.Context, workerCount, jobBufferSize int, evaluator *Evaluator) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		evaluator:   evaluator,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan Result, jobBufferSize),
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the job queue, waits for in-flight jobs to finish, then
// closes the result queue.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a job. It fails only when the pool context is cancelled;
// cancellation stops new submissions and drains already-queued jobs as
// failures, but never interrupts a running evaluation.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the channel completed jobs are delivered on.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := Result{ID: job.ID, Params: job.Params}

		select {
		case <-wp.ctx.Done():
			// Jobs still queued at abort are skipped, not evaluated.
			result.Err = wp.ctx.Err()
		default:
			start := time.Now()
			result.Results, result.Metrics, result.Err = wp.evaluator.EvaluateCombination(job.Params)
			result.Duration = time.Since(start)
		}

		// Results are always delivered, even after cancellation, so the
		// collector sees exactly one result per submitted job.
		wp.resultQueue <- result
	}
}

// ProgressTracker tracks completion of a batch for user-facing progress
// reporting. It never participates in control flow.
type ProgressTracker struct {
	total     int
	completed int
	failed    int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a tracker for a batch of the given size.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Record counts one finished combination.
func (pt *ProgressTracker) Record(failed bool) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
	if failed {
		pt.failed++
	}
}

// Progress returns completed count, total, percent complete, and elapsed time.
func (pt *ProgressTracker) Progress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	elapsed := time.Since(pt.startTime)
	percent := 0.0
	if pt.total > 0 {
		percent = float64(pt.completed) / float64(pt.total) * 100
	}
	return pt.completed, pt.total, percent, elapsed
}

// Failed returns the number of failed combinations so far.
func (pt *ProgressTracker) Failed() int {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	return pt.failed
}

// EstimateTimeRemaining extrapolates the remaining time from the average
// time per completed combination.
func (pt *ProgressTracker) EstimateTimeRemaining() time.Duration {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	if pt.completed == 0 {
		return 0
	}

	elapsed := time.Since(pt.startTime)
	avgTimePerItem := elapsed / time.Duration(pt.completed)
	remaining := pt.total - pt.completed

	return avgTimePerItem * time.Duration(remaining)
}
