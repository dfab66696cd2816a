// internal/app/system/tasks/runner.go
//
// Package tasks runs periodic maintenance jobs (retention cleanup) in the
// background and records how each job last went.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("tasks: unknown job")

// Job is a periodic task. Run is called once at Start and then every
// Interval until Stop.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run lasts until shutdown.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// JobStatus is a snapshot of one job's history.
type JobStatus struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	Running      bool          `json:"running"`
	Runs         int           `json:"runs"`
	LastRun      *time.Time    `json:"lastRun,omitempty"`
	LastDuration time.Duration `json:"lastDuration"`
	LastError    string        `json:"lastError,omitempty"`
}

// Runner owns the job goroutines.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu    sync.Mutex
	state map[string]*JobStatus
}

// New creates a Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		state:  make(map[string]*JobStatus),
	}
}

// Register adds a job. Jobs without an interval are skipped.
func (r *Runner) Register(job Job) {
	if job.Interval <= 0 {
		r.logger.Warn("job has no interval; not scheduled", zap.String("job", job.Name))
		return
	}
	r.jobs = append(r.jobs, job)

	r.mu.Lock()
	r.state[job.Name] = &JobStatus{Name: job.Name, Interval: job.Interval}
	r.mu.Unlock()
}

// Jobs returns the names of the registered jobs in registration order.
func (r *Runner) Jobs() []string {
	names := make([]string, len(r.jobs))
	for i, j := range r.jobs {
		names[i] = j.Name
	}
	return names
}

// Status returns a snapshot per registered job in registration order.
func (r *Runner) Status() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobStatus, 0, len(r.jobs))
	for _, j := range r.jobs {
		s := *r.state[j.Name]
		if s.LastRun != nil {
			t := *s.LastRun
			s.LastRun = &t
		}
		out = append(out, s)
	}
	return out
}

// Start launches one goroutine per job. Call Stop to shut down.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
}

// Stop cancels all jobs and waits for them within ctx's deadline. It
// returns ctx.Err() if jobs are still running when ctx ends.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		var busy []string
		for _, s := range r.Status() {
			if s.Running {
				busy = append(busy, s.Name)
			}
		}
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", busy))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

// execute performs one scheduled run and records its outcome.
func (r *Runner) execute(ctx context.Context, job Job) {
	err := r.RunOnce(ctx, job.Name)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
	default:
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
	}
}

// RunOnce executes a registered job immediately and records the run.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name != name {
			continue
		}
		r.mark(name, func(s *JobStatus) { s.Running = true })

		start := time.Now()
		err := call(ctx, job)
		elapsed := time.Since(start)

		r.mark(name, func(s *JobStatus) {
			s.Running = false
			s.Runs++
			s.LastRun = &start
			s.LastDuration = elapsed
			s.LastError = ""
			if err != nil {
				s.LastError = err.Error()
			}
		})
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

func (r *Runner) mark(name string, f func(*JobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.state[name]; ok {
		f(s)
	}
}

// call runs job once, converting a panic into an error.
func call(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
	}()
	return job.Run(ctx)
}
