package game

import (
	"context"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-sandbox/generator"
	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/memory"
	"github.com/beka-birhanu/vinom-sandbox/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wallFollower keeps its heading in bits 0-1 and follows the right-hand wall.
const wallFollower = `
local dir = loadInt(0, 2)
for _, turn in ipairs({1, 0, 3, 2}) do
	local d = (dir + turn) % 4
	if get(d) ~= WALL then
		storeInt(0, 2, d)
		move(d)
		return
	end
end
`

// openRow is a 5x1 maze with the player at the left and FINISH at the right.
func openRow(t *testing.T) *maze.Maze {
	t.Helper()
	m, err := maze.New(5, 1)
	require.NoError(t, err)
	return m
}

func TestStep(t *testing.T) {
	t.Run("Counts steps and keeps only the last diagnostics", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(RIGHT)\nmove(RIGHT)")
		require.NoError(t, err)

		require.NoError(t, sim.Step())
		require.Len(t, sim.StepErrors(), 1)
		require.NoError(t, sim.Step())
		assert.Len(t, sim.StepErrors(), 1)

		assert.Equal(t, 2, sim.Stats().Steps)
		sim.View(func(m *maze.Maze) {
			assert.Equal(t, maze.Position{X: 2, Y: 0}, m.Player())
		})
	})

	t.Run("Clears diagnostics on a clean step", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "if loadBit(0) then move(1) else storeBit(0, true) move(9) end")
		require.NoError(t, err)

		require.NoError(t, sim.Step())
		assert.True(t, sandbox.HasErrors(sim.StepErrors()))
		require.NoError(t, sim.Step())
		assert.Empty(t, sim.StepErrors())
	})

	t.Run("Tracks memory footprint", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "storeBit(99, true)")
		require.NoError(t, err)

		require.NoError(t, sim.Step())
		assert.Equal(t, Stats{Steps: 1, MemoryUsed: 100}, sim.Stats())
	})

	t.Run("Fatal error is returned and recorded", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "storeInt(0, 2, 4)")
		require.NoError(t, err)

		err = sim.Step()
		assert.ErrorIs(t, err, memory.ErrValueOutOfRange)
		assert.Equal(t, 1, sim.Stats().Steps)
		assert.True(t, sandbox.HasErrors(sim.StepErrors()))
	})

	t.Run("Hooks", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(1)")
		require.NoError(t, err)

		var stepped []int
		finished := 0
		sim.OnStep(func(s Stats) { stepped = append(stepped, s.Steps) })
		sim.OnFinish(func(s Stats) {
			finished++
			assert.Equal(t, 4, s.Steps)
		})

		require.NoError(t, sim.Simulate(SimulateOptions{}))
		assert.Equal(t, []int{1, 2, 3, 4}, stepped)
		assert.Equal(t, 1, finished)
	})

	t.Run("Reentrant step is refused", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "")
		require.NoError(t, err)

		var nested error
		sim.OnStep(func(Stats) { nested = sim.Step() })

		require.NoError(t, sim.Step())
		assert.ErrorIs(t, nested, ErrReentrantStep)
		assert.Equal(t, 1, sim.Stats().Steps)
	})

	t.Run("Compile errors", func(t *testing.T) {
		_, err := NewSimulator(openRow(t), "move(")
		assert.ErrorIs(t, err, sandbox.ErrCompile)

		sim, err := NewSimulator(openRow(t), "move(1)")
		require.NoError(t, err)
		assert.ErrorIs(t, sim.SetStepCode("end"), sandbox.ErrCompile)
		assert.Equal(t, "move(1)", sim.StepCode())

		require.NoError(t, sim.SetStepCode("move(3)"))
		assert.Equal(t, "move(3)", sim.StepCode())
	})

	t.Run("Constants reach the program", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(mazeSize)", WithConstants(map[string]int{"mazeSize": 1}))
		require.NoError(t, err)

		require.NoError(t, sim.Step())
		assert.Empty(t, sim.StepErrors())
	})

	t.Run("Memory limit", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "storeBit(64, true)", WithMemoryLimit(64))
		require.NoError(t, err)

		assert.ErrorIs(t, sim.Step(), memory.ErrLimitExceeded)
	})
}

func TestSimulateSync(t *testing.T) {
	t.Run("Finished maze performs zero steps", func(t *testing.T) {
		m, _ := maze.New(1, 1)
		require.True(t, m.Finished())
		sim, err := NewSimulator(m, "move(1)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{MaxSteps: 10000}))
		assert.Equal(t, 0, sim.Stats().Steps)
	})

	t.Run("Stops at MaxSteps", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(LEFT)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{MaxSteps: 25}))
		assert.Equal(t, 25, sim.Stats().Steps)
		assert.False(t, sim.Finished())
	})

	t.Run("StopOnError halts after the failing step", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(7)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{MaxSteps: 100, StopOnError: true}))
		assert.Equal(t, 1, sim.Stats().Steps)
	})

	t.Run("Warnings do not stop the run", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(UP)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{MaxSteps: 5, StopOnError: true}))
		assert.Equal(t, 5, sim.Stats().Steps)
		require.Len(t, sim.StepErrors(), 1)
		assert.Equal(t, sandbox.Warning, sim.StepErrors()[0].Level)
	})

	t.Run("Fatal error ends the run", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "loadBit(-3)")
		require.NoError(t, err)

		assert.ErrorIs(t, sim.Simulate(SimulateOptions{}), memory.ErrNegativeIndex)
		assert.Equal(t, 1, sim.Stats().Steps)
	})

	t.Run("Cancelled context runs no step", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(RIGHT)")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = sim.SimulateContext(ctx, SimulateOptions{})

		assert.ErrorIs(t, err, sandbox.ErrInterrupted)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, sim.Stats().Steps)
	})

	t.Run("Deadline ends a hung run", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "while true do end", WithStepTimeout(time.Minute))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		start := time.Now()
		err = sim.SimulateContext(ctx, SimulateOptions{MaxSteps: 1000})

		assert.ErrorIs(t, err, sandbox.ErrInterrupted)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, sim.Stats().Steps)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("Wall follower solves generated mazes", func(t *testing.T) {
		for _, name := range generator.Names() {
			for seed := int64(1); seed <= 5; seed++ {
				m, _ := maze.New(15, 11)
				require.NoError(t, generator.Generate(name, m, generator.WithSeed(seed)))

				sim, err := NewSimulator(m, wallFollower)
				require.NoError(t, err)

				require.NoError(t, sim.Simulate(SimulateOptions{MaxSteps: 1000, StopOnError: true}))
				assert.True(t, sim.Finished(), "%s seed %d", name, seed)
				assert.Equal(t, 2, sim.Stats().MemoryUsed)
			}
		}
	})
}

func TestSimulateAsync(t *testing.T) {
	t.Run("Runs MaxSteps on a timer", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(LEFT)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{Timeout: time.Millisecond, MaxSteps: 5}))
		<-sim.Done()

		assert.Equal(t, 5, sim.Stats().Steps)
		assert.False(t, sim.IsSimulating())
	})

	t.Run("Ends on finish", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(RIGHT)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{Timeout: time.Millisecond}))
		<-sim.Done()

		assert.True(t, sim.Finished())
		assert.Equal(t, 4, sim.Stats().Steps)
	})

	t.Run("StopSimulating cancels the run", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "move(LEFT)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{Timeout: 2 * time.Millisecond}))
		assert.True(t, sim.IsSimulating())
		assert.ErrorIs(t, sim.Simulate(SimulateOptions{Timeout: time.Millisecond}), ErrAlreadySimulating)
		assert.ErrorIs(t, sim.Simulate(SimulateOptions{}), ErrAlreadySimulating)

		time.Sleep(20 * time.Millisecond)
		sim.StopSimulating()
		assert.False(t, sim.IsSimulating())
		<-sim.Done()

		steps := sim.Stats().Steps
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, steps, sim.Stats().Steps)
	})

	t.Run("StopOnError", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "storeInt(0, 1, 2)")
		require.NoError(t, err)

		require.NoError(t, sim.Simulate(SimulateOptions{Timeout: time.Millisecond, StopOnError: true}))
		<-sim.Done()

		assert.Equal(t, 1, sim.Stats().Steps)
		assert.ErrorIs(t, sim.Err(), memory.ErrValueOutOfRange)
	})

	t.Run("Stop without a run is a no-op", func(t *testing.T) {
		sim, err := NewSimulator(openRow(t), "")
		require.NoError(t, err)

		sim.StopSimulating()
		<-sim.Done()
		assert.False(t, sim.IsSimulating())
		assert.NoError(t, sim.Err())
	})
}

func TestMazeConstants(t *testing.T) {
	cases := []struct {
		w, h, size, log int
	}{
		{1, 1, 1, 0},
		{2, 1, 2, 1},
		{21, 11, 21, 5},
		{32, 32, 32, 5},
		{33, 5, 33, 6},
	}
	for _, c := range cases {
		m, err := maze.New(c.w, c.h)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"mazeSize": c.size, "logSize": c.log}, MazeConstants(m))
	}
}
