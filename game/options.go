package game

import (
	"math/bits"
	"time"

	"github.com/beka-birhanu/vinom-sandbox/maze"
)

// Logger is the logging surface the simulator writes to.
type Logger interface {
	Debug(string)
	Info(string)
	Warning(string)
	Error(string)
}

type nopLogger struct{}

func (nopLogger) Debug(string)   {}
func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStepTimeout bounds every program invocation. Defaults to sandbox.DefaultStepTimeout.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Simulator) {
		s.stepTimeout = d
	}
}

// WithConstants exposes extra global numbers to the step-program.
func WithConstants(c map[string]int) Option {
	return func(s *Simulator) {
		s.constants = c
	}
}

// WithMemoryLimit caps the memory in bits. A limit <= 0 removes the cap.
func WithMemoryLimit(bits int) Option {
	return func(s *Simulator) {
		s.memoryLimit = bits
	}
}

// SimulateOptions controls a Simulate call.
type SimulateOptions struct {
	// Timeout is the delay before every step. Zero runs synchronously.
	Timeout time.Duration

	// MaxSteps bounds the number of steps of this run. Zero means DefaultMaxSteps for a
	// synchronous run and no limit for a timed one.
	MaxSteps int

	// StopOnError halts the run after a step that produced an ERROR diagnostic.
	StopOnError bool
}

// Stats are the counters exposed to display collaborators.
type Stats struct {
	Steps      int `json:"steps"`
	MemoryUsed int `json:"memory_used"`
}

// MazeConstants returns the globals describing m: mazeSize is the larger dimension and logSize
// the number of bits that hold any coordinate.
func MazeConstants(m *maze.Maze) map[string]int {
	size := max(m.Width(), m.Height())
	return map[string]int{
		"mazeSize": size,
		"logSize":  bits.Len(uint(size - 1)),
	}
}
