// Package task supervises cancellable, named units of work.
//
// A Supervisor tracks jobs through pending → running → one of completed,
// cancelled, or failed. Terminal states remove the job from the active
// registry. Sibling failures are isolated: one job's panic or error never
// cancels another. Two launch surfaces are exposed, the general pool and a
// pool intended for blocking or slow operations, with identical isolation.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// State is a job's position in its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Pool selects which work surface a job runs on.
type Pool string

const (
	PoolGeneral  Pool = "general"
	PoolBlocking Pool = "blocking"
)

// ErrSupervisorClosed is returned by Launch after Close.
var ErrSupervisorClosed = errors.New("supervisor is closed")

// ErrJobPanic wraps a recovered panic from a supervised job.
var ErrJobPanic = errors.New("job panicked")

// Job is one tracked unit of work.
type Job struct {
	name string
	pool Pool

	cancel context.CancelCauseFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
	err   error
}

// Name returns the job's registry name.
func (j *Job) Name() string {
	return j.name
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.state
}

// Err returns the job's failure cause, nil unless the job failed.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.err
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel requests cooperative cancellation of this job.
func (j *Job) Cancel(reason string) {
	j.cancel(fmt.Errorf("job cancelled: %s", reason))
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// Supervisor owns the active-job registry and the pools' shared lifecycle.
type Supervisor struct {
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu     sync.Mutex
	jobs   map[string]*Job
	closed bool
	failed error

	wg sync.WaitGroup
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger for job lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

// NewSupervisor creates a Supervisor whose jobs inherit from ctx.
func NewSupervisor(ctx context.Context, opts ...Option) *Supervisor {
	base, cancel := context.WithCancelCause(ctx)

	s := &Supervisor{
		log:    slog.Default(),
		ctx:    base,
		cancel: cancel,
		jobs:   make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Launch starts fn on the general pool. An empty name is replaced with a
// generated unique one. Launch fails fast once the supervisor is closed.
func (s *Supervisor) Launch(name string, fn func(context.Context) error) (*Job, error) {
	return s.launch(PoolGeneral, name, fn)
}

// LaunchBlocking starts fn on the pool reserved for blocking or slow
// operations. Isolation semantics match Launch.
func (s *Supervisor) LaunchBlocking(name string, fn func(context.Context) error) (*Job, error) {
	return s.launch(PoolBlocking, name, fn)
}

func (s *Supervisor) launch(pool Pool, name string, fn func(context.Context) error) (*Job, error) {
	if name == "" {
		name = uuid.NewString()
	}

	jobCtx, jobCancel := context.WithCancelCause(s.ctx)

	job := &Job{
		name:   name,
		pool:   pool,
		cancel: jobCancel,
		done:   make(chan struct{}),
		state:  StatePending,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		jobCancel(ErrSupervisorClosed)
		return nil, ErrSupervisorClosed
	}

	if prev, exists := s.jobs[name]; exists {
		s.mu.Unlock()
		jobCancel(nil)
		return nil, fmt.Errorf("job %q already active (state %s)", name, prev.State())
	}

	s.jobs[name] = job
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(job, jobCtx, fn)

	return job, nil
}

// run executes one job, translating its outcome into a terminal state and
// removing it from the registry.
func (s *Supervisor) run(job *Job, ctx context.Context, fn func(context.Context) error) {
	defer s.wg.Done()
	defer close(job.done)
	defer s.remove(job)

	job.setState(StateRunning)

	err := s.invoke(ctx, fn)

	switch {
	case err == nil:
		job.setState(StateCompleted)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		job.setState(StateCancelled)
		s.log.Debug("job cancelled",
			slog.String("job", job.name),
			slog.String("pool", string(job.pool)),
		)
	default:
		job.mu.Lock()
		job.state = StateFailed
		job.err = err
		job.mu.Unlock()

		s.recordFailure(job.name, err)
		s.log.Error("job failed",
			slog.String("job", job.name),
			slog.String("pool", string(job.pool)),
			slog.String("error", err.Error()),
		)
	}
}

// invoke runs fn, converting a panic into an error so sibling jobs keep
// running.
func (s *Supervisor) invoke(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanic, r)
		}
	}()

	return fn(ctx)
}

func (s *Supervisor) remove(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only remove our own registration; a name may have been reused after
	// this job finished cancelling.
	if current, ok := s.jobs[job.name]; ok && current == job {
		delete(s.jobs, job.name)
	}
}

func (s *Supervisor) recordFailure(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = multierr.Append(s.failed, fmt.Errorf("job %q: %w", name, err))
}

// Execute runs fn synchronously as a tracked unit of work. A positive
// timeout bounds the call; overrunning it yields a timeout error rather
// than a hang.
func Execute[T any](s *Supervisor, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	type outcome struct {
		value T
		err   error
	}

	ch := make(chan outcome, 1)

	runCtx := s.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	job, err := s.Launch(name, func(context.Context) error {
		value, err := fn(runCtx)
		ch <- outcome{value: value, err: err}
		return err
	})
	if err != nil {
		return zero, err
	}

	select {
	case out := <-ch:
		return out.value, out.err
	case <-runCtx.Done():
		job.Cancel("deadline exceeded")
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%q timed out after %v: %w", name, timeout, context.DeadlineExceeded)
		}
		return zero, runCtx.Err()
	}
}

// CancelAll propagates cancellation to every tracked job. The pools stay
// usable: new jobs may still be launched afterwards.
func (s *Supervisor) CancelAll(reason string) {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	s.log.Info("cancelling all jobs",
		slog.Int("count", len(jobs)),
		slog.String("reason", reason),
	)

	for _, j := range jobs {
		j.Cancel(reason)
	}
}

// CancelJob cancels the named job if it is active.
func (s *Supervisor) CancelJob(name string) bool {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return false
	}

	job.Cancel("cancelled by name")

	return true
}

// IsJobActive reports whether the named job is still tracked.
func (s *Supervisor) IsJobActive(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.jobs[name]

	return ok
}

// ActiveCount returns the number of tracked jobs.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}

// ActiveNames returns the names of all tracked jobs, in no particular order.
func (s *Supervisor) ActiveNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	return names
}

// Err returns the accumulated failures of finished jobs, combined with
// multierr; nil when nothing failed.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failed
}

// AwaitAll blocks until every tracked job finishes or the timeout elapses,
// reporting whether all work completed in time. A zero timeout waits
// indefinitely.
func (s *Supervisor) AwaitAll(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close cancels everything and permanently disables new submissions.
// It is idempotent and returns accumulated job failures.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.failed
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel(ErrSupervisorClosed)
	s.wg.Wait()

	return s.Err()
}
