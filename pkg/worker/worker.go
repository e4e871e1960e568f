package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

var (
	ErrPreExecute = errors.New("pre-execute job error")
	ErrExecute    = errors.New("execute job error")
	ErrQueueFull  = errors.New("job queue is full")
	ErrStopped    = errors.New("worker is stopped")
)

// Job holds all information regarding the Job
type Job interface {
	// ID return uint64 unique identifier of the job
	ID() uint64

	// Context to tracks down all Job information that important.
	Context() context.Context

	// PreExecute called before Execute, when error Execute never be called.
	// PostExecute always called after PreExecute or Execute is done.
	PreExecute() error

	// Execute is the real logic of the Job.
	Execute() error

	// PostExecute called after Execute is done.
	// When Execute return error, it will pass to PostExecute, otherwise it returns nil.
	PostExecute(err error)
}

type Service interface {
	AddJob(job Job) error
	WaitJob(job Job) error
}

type Worker struct {
	waitGroup   sync.WaitGroup
	mu          sync.RWMutex
	stopped     bool
	JobQueue    chan Job
	JobQueueNum int64
}

var _ Service = (*Worker)(nil)

func NewWorker(num, maxJob int) *Worker {
	if num < 1 {
		num = 1
	}

	if maxJob < 1 {
		maxJob = 1
	}

	w := &Worker{
		JobQueue: make(chan Job, maxJob),
	}

	for i := 0; i < num; i++ {
		go w.worker(i + 1)
	}

	return w
}

func (w *Worker) worker(id int) {
	for job := range w.JobQueue {
		t0 := time.Now()
		_ = run(job)
		atomic.AddInt64(&w.JobQueueNum, -1)
		w.waitGroup.Done()

		ylog.Debug(job.Context(), "worker job done",
			ylog.KV("worker", id),
			ylog.KV("job_id", job.ID()),
			ylog.KV("ongoing_queue", atomic.LoadInt64(&w.JobQueueNum)),
			ylog.KV("duration", time.Since(t0).String()),
		)
	}
}

func run(job Job) error {
	err := job.PreExecute()
	if err != nil {
		err = multierr.Append(err, ErrPreExecute)
		job.PostExecute(err)
		return err
	}

	err = job.Execute()
	if err != nil {
		err = multierr.Append(err, ErrExecute)
	}

	job.PostExecute(err)
	return err
}

// AddJob enqueue job without blocking. It returns ErrQueueFull when the queue has no room,
// so callers on a request path are never held by a slow job.
func (w *Worker) AddJob(job Job) error {
	if job == nil {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrStopped
	}

	w.waitGroup.Add(1)
	select {
	case w.JobQueue <- job:
		atomic.AddInt64(&w.JobQueueNum, 1)
		return nil
	default:
		w.waitGroup.Done()
		return ErrQueueFull
	}
}

// WaitJob run the job on caller goroutine and return its error.
func (w *Worker) WaitJob(job Job) error {
	if job == nil {
		return nil
	}

	return run(job)
}

// Done ensures all registered Job is done before stop the worker.
func (w *Worker) Done() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}

	w.stopped = true
	w.mu.Unlock()

	w.waitGroup.Wait()
	close(w.JobQueue)
}
