// Package game drives a step-program through a maze.
//
// A Simulator owns one maze and one memory. Every Step runs the program once in a fresh
// sandbox context, records its diagnostics and updates the counters. Simulate repeats Step
// either synchronously or on a timer until the maze is solved, a step budget is spent or the
// run is stopped.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/memory"
	"github.com/beka-birhanu/vinom-sandbox/sandbox"
)

// DefaultMaxSteps bounds a synchronous Simulate call.
const DefaultMaxSteps = 10000

// Simulator-related errors.
var (
	ErrReentrantStep     = errors.New("step already in progress")
	ErrAlreadySimulating = errors.New("simulation already running")
)

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Simulator runs a step-program against a maze.
type Simulator struct {
	maze        *maze.Maze           // The maze being solved.
	memory      *memory.Memory       // Bits kept between steps.
	program     *sandbox.Program     // Compiled step-program.
	constants   map[string]int       // Extra program globals.
	stepTimeout time.Duration        // Budget of one invocation.
	memoryLimit int                  // Memory cap in bits.
	logger      Logger               // Destination of run events.
	steps       int                  // Steps executed so far.
	peakMemory  int                  // Largest memory size seen after a step.
	stepErrors  []sandbox.Diagnostic // Diagnostics of the last step only.
	onStep      func(Stats)          // Called after every step.
	onFinish    func(Stats)          // Called after a step that ends on FINISH.
	stop        chan struct{}        // Non-nil while a timed run is pending.
	done        chan struct{}        // Closed when the latest timed run ends.
	runErr      error                // Last fatal error of the latest timed run.
	stepping    atomic.Bool          // Guards against reentrant steps.
	mu          sync.RWMutex
}

// NewSimulator compiles code and binds it to m with a fresh memory.
func NewSimulator(m *maze.Maze, code string, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		maze:        m,
		stepTimeout: sandbox.DefaultStepTimeout,
		memoryLimit: memory.DefaultLimit,
		logger:      nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	program, err := sandbox.Compile("step", code)
	if err != nil {
		return nil, err
	}
	s.program = program
	s.memory = memory.New(memory.WithLimit(s.memoryLimit))
	return s, nil
}

// SetStepCode replaces the step-program. The old program stays in place if code does not
// compile.
func (s *Simulator) SetStepCode(code string) error {
	program, err := sandbox.Compile("step", code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.program = program
	s.mu.Unlock()
	return nil
}

// StepCode returns the source of the current step-program.
func (s *Simulator) StepCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.program.Source()
}

// OnStep registers a hook called after every step.
func (s *Simulator) OnStep(f func(Stats)) {
	s.mu.Lock()
	s.onStep = f
	s.mu.Unlock()
}

// OnFinish registers a hook called after a step that leaves the player on FINISH.
func (s *Simulator) OnFinish(f func(Stats)) {
	s.mu.Lock()
	s.onFinish = f
	s.mu.Unlock()
}

// Stats returns the current counters.
func (s *Simulator) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Simulator) statsLocked() Stats {
	return Stats{Steps: s.steps, MemoryUsed: s.peakMemory}
}

// StepErrors returns a snapshot of the diagnostics of the last step.
func (s *Simulator) StepErrors() []sandbox.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sandbox.Diagnostic(nil), s.stepErrors...)
}

// Finished reports whether the player stands on FINISH.
func (s *Simulator) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maze.Finished()
}

// View calls f with the maze while no step can run. f must not keep m.
func (s *Simulator) View(f func(m *maze.Maze)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.maze)
}

// Step runs the program exactly once. A fatal program error is recorded as an ERROR
// diagnostic and returned; the step still counts.
func (s *Simulator) Step() error {
	return s.StepContext(context.Background())
}

// StepContext is Step with ctx interrupting the program. A step interrupted this way fails
// with sandbox.ErrInterrupted and still counts.
func (s *Simulator) StepContext(ctx context.Context) error {
	if !s.stepping.CompareAndSwap(false, true) {
		return ErrReentrantStep
	}
	defer s.stepping.Store(false)

	stats, finished, onStep, onFinish, err := s.step(ctx)
	if err != nil {
		s.logger.Warning(fmt.Sprintf("Step %d failed: %v", stats.Steps, err))
	}

	if onStep != nil {
		onStep(stats)
	}
	if finished {
		s.logger.Info(fmt.Sprintf("Maze solved in %d steps using %d bits", stats.Steps, stats.MemoryUsed))
		if onFinish != nil {
			onFinish(stats)
		}
	}
	return err
}

func (s *Simulator) step(ctx context.Context) (Stats, bool, func(Stats), func(Stats), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stepErrors = nil
	sc := sandbox.NewContext(s.maze, s.memory)
	err := sc.Run(ctx, s.program, sandbox.Options{
		Timeout:   s.stepTimeout,
		Constants: s.constants,
	})
	s.stepErrors = sc.Diagnostics()
	if err != nil {
		s.stepErrors = append(s.stepErrors, sandbox.Diagnostic{Level: sandbox.Error, Text: err.Error()})
	}

	s.steps++
	if size := s.memory.Size(); size > s.peakMemory {
		s.peakMemory = size
	}
	return s.statsLocked(), s.maze.Finished(), s.onStep, s.onFinish, err
}

// Simulate runs steps until the maze is solved or opts says to stop. Without a Timeout it
// runs on the caller and returns the first fatal program error. With a Timeout it schedules
// the run on its own goroutine and returns at once; use Done, Err and StopSimulating to
// follow it.
func (s *Simulator) Simulate(opts SimulateOptions) error {
	return s.SimulateContext(context.Background(), opts)
}

// SimulateContext is Simulate with ctx ending a synchronous run, both between steps and
// inside the running program. A timed run does not observe ctx.
func (s *Simulator) SimulateContext(ctx context.Context, opts SimulateOptions) error {
	if opts.Timeout <= 0 {
		return s.simulateSync(ctx, opts)
	}
	return s.simulateAsync(opts)
}

func (s *Simulator) simulateSync(ctx context.Context, opts SimulateOptions) error {
	if s.IsSimulating() {
		return ErrAlreadySimulating
	}

	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	for executed := 0; executed < maxSteps && !s.Finished(); executed++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info(fmt.Sprintf("Run interrupted after %d steps", executed))
			return fmt.Errorf("%w: %w", sandbox.ErrInterrupted, err)
		}
		if err := s.StepContext(ctx); err != nil {
			return err
		}
		if opts.StopOnError && sandbox.HasErrors(s.StepErrors()) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) simulateAsync(opts SimulateOptions) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return ErrAlreadySimulating
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done, s.runErr = stop, done, nil
	s.mu.Unlock()

	s.logger.Debug(fmt.Sprintf("Timed run started: every %v, max steps %d", opts.Timeout, opts.MaxSteps))
	go s.run(opts, stop, done)
	return nil
}

// run is the timed loop. Cancellation is only observed between steps.
func (s *Simulator) run(opts SimulateOptions, stop, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	for executed := 0; ; executed++ {
		select {
		case <-stop:
			return
		case <-timer.C:
		}
		select {
		case <-stop:
			return
		default:
		}

		if s.Finished() || (opts.MaxSteps > 0 && executed >= opts.MaxSteps) {
			return
		}
		if opts.StopOnError && executed > 0 && sandbox.HasErrors(s.StepErrors()) {
			s.logger.Info(fmt.Sprintf("Timed run halted on error after %d steps", executed))
			return
		}

		if err := s.Step(); err != nil {
			s.mu.Lock()
			s.runErr = err
			s.mu.Unlock()
		}
		timer.Reset(opts.Timeout)
	}
}

// StopSimulating cancels a pending timed run. A step already running completes.
func (s *Simulator) StopSimulating() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// IsSimulating reports whether a timed run is pending.
func (s *Simulator) IsSimulating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stop != nil
}

// Done returns a channel closed when the latest timed run ends.
func (s *Simulator) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done == nil {
		return closedChan
	}
	return s.done
}

// Err returns the last fatal program error of the latest timed run.
func (s *Simulator) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runErr
}
