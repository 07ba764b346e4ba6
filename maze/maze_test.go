package maze

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed Intn results.
type scriptedRand struct {
	ints []int
}

func (s *scriptedRand) Intn(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 { return 0 }

func countCells(m *Maze, state CellState) int {
	n := 0
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.GetCell(Position{X: x, Y: y}) == state {
				n++
			}
		}
	}
	return n
}

func TestNew(t *testing.T) {
	t.Run("Fresh maze layout", func(t *testing.T) {
		m, err := New(4, 3)
		require.NoError(t, err)

		assert.Equal(t, 4, m.Width())
		assert.Equal(t, 3, m.Height())
		assert.Equal(t, Position{}, m.Player())
		assert.Equal(t, Finish, m.GetCell(Position{X: 3, Y: 2}))
		assert.Equal(t, 11, countCells(m, Empty))
		assert.False(t, m.Finished())
	})

	t.Run("Invalid dimensions", func(t *testing.T) {
		_, err := New(0, 5)
		assert.ErrorIs(t, err, ErrInvalidDimensions)

		_, err = New(5, -1)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("Out of range access panics", func(t *testing.T) {
		m, _ := New(2, 2)
		assert.Panics(t, func() { m.GetCell(Position{X: 2, Y: 0}) })
		assert.Panics(t, func() { m.SetCell(Position{X: 0, Y: -1}, Wall) })
	})
}

func TestFillChambers(t *testing.T) {
	m, err := New(5, 5)
	require.NoError(t, err)

	m.FillChambers()

	chambers := []Position{{1, 1}, {3, 1}, {1, 3}}
	for _, c := range chambers {
		assert.Equal(t, Empty, m.GetCell(c), "chamber %v", c)
	}
	assert.Equal(t, Finish, m.GetCell(Position{X: 3, Y: 3}))
	assert.Equal(t, 3, countCells(m, Empty))
	assert.Equal(t, 1, countCells(m, Finish))
	assert.Equal(t, 21, countCells(m, Wall))
	assert.Equal(t, 2, m.ChamberWidth())
	assert.Equal(t, 2, m.ChamberHeight())
}

func TestConnect(t *testing.T) {
	t.Run("Horizontal segment", func(t *testing.T) {
		m, _ := New(7, 3)
		m.Fill(Wall)

		require.NoError(t, m.Connect(Position{X: 5, Y: 1}, Position{X: 1, Y: 1}))
		for x := 1; x <= 5; x++ {
			assert.Equal(t, Empty, m.GetCell(Position{X: x, Y: 1}))
		}
		assert.Equal(t, 5, countCells(m, Empty))
	})

	t.Run("Single cell", func(t *testing.T) {
		m, _ := New(3, 3)
		m.Fill(Wall)

		require.NoError(t, m.Connect(Position{X: 1, Y: 1}, Position{X: 1, Y: 1}))
		assert.Equal(t, 1, countCells(m, Empty))
	})

	t.Run("Diagonal endpoints", func(t *testing.T) {
		m, _ := New(3, 3)
		m.Fill(Wall)

		err := m.Connect(Position{X: 0, Y: 0}, Position{X: 1, Y: 1})
		assert.ErrorIs(t, err, ErrGeometry)
		assert.Equal(t, 0, countCells(m, Empty))
	})

	t.Run("Chambers", func(t *testing.T) {
		m, _ := New(5, 5)
		m.FillChambers()

		require.NoError(t, m.ConnectChambers(Position{X: 0, Y: 0}, Position{X: 0, Y: 1}))
		assert.Equal(t, Empty, m.GetCell(Position{X: 1, Y: 2}))
	})
}

func TestMove(t *testing.T) {
	m, _ := New(3, 3)
	m.SetCell(Position{X: 1, Y: 0}, Wall)

	t.Run("Out of bounds", func(t *testing.T) {
		assert.False(t, m.Move(Up.Delta()))
		assert.False(t, m.Move(Left.Delta()))
		assert.Equal(t, Position{}, m.Player())
	})

	t.Run("Into wall", func(t *testing.T) {
		assert.False(t, m.Move(Right.Delta()))
		assert.Equal(t, Position{}, m.Player())
	})

	t.Run("Into empty and finish", func(t *testing.T) {
		assert.True(t, m.Move(Down.Delta()))
		assert.True(t, m.Move(Down.Delta()))
		assert.True(t, m.Move(Right.Delta()))
		assert.True(t, m.Move(Right.Delta()))
		assert.Equal(t, Position{X: 2, Y: 2}, m.Player())
		assert.True(t, m.Finished())
	})
}

func TestPeek(t *testing.T) {
	m, _ := New(2, 2)
	m.SetCell(Position{X: 0, Y: 1}, Wall)

	assert.Equal(t, Wall, m.Peek(Up))
	assert.Equal(t, Empty, m.Peek(Right))
	assert.Equal(t, Wall, m.Peek(Down))
	assert.Equal(t, Wall, m.Peek(Left))
}

func TestRandomStartAndFinish(t *testing.T) {
	t.Run("Distinct start and finish", func(t *testing.T) {
		m, _ := New(9, 9)
		m.FillChambers()
		r := rand.New(rand.NewSource(7))

		for i := 0; i < 50; i++ {
			require.NoError(t, m.RandomStartAndFinish(r))
			assert.Equal(t, 1, countCells(m, Finish))
			assert.Equal(t, Empty, m.GetCell(m.Player()))
			assert.False(t, m.Finished())
		}
	})

	t.Run("Redraws a colliding finish", func(t *testing.T) {
		m, _ := New(3, 1)
		r := &scriptedRand{ints: []int{1, 1, 1, 2}}

		require.NoError(t, m.RandomStartAndFinish(r))
		assert.Equal(t, Position{X: 1, Y: 0}, m.Player())
		assert.Equal(t, Finish, m.GetCell(Position{X: 2, Y: 0}))
		assert.Equal(t, 2, countCells(m, Empty))
	})

	t.Run("Single empty cell holds both", func(t *testing.T) {
		m, _ := New(3, 3)
		m.FillChambers()
		r := &scriptedRand{ints: []int{0, 0}}

		require.NoError(t, m.RandomStartAndFinish(r))
		assert.Equal(t, Position{X: 1, Y: 1}, m.Player())
		assert.True(t, m.Finished())
	})

	t.Run("No empty cells", func(t *testing.T) {
		m, _ := New(2, 2)
		m.Fill(Wall)

		err := m.RandomStartAndFinish(rand.New(rand.NewSource(1)))
		assert.ErrorIs(t, err, ErrNoEmptyCells)
	})
}

func TestString(t *testing.T) {
	m, _ := New(3, 3)
	m.FillChambers()

	assert.Equal(t, "@##\n#F#\n###\n", m.String())
}

func TestDirection(t *testing.T) {
	assert.Equal(t, Position{X: 0, Y: -1}, Up.Delta())
	assert.Equal(t, Position{X: 1, Y: 0}, Right.Delta())
	assert.Equal(t, Position{X: 0, Y: 1}, Down.Delta())
	assert.Equal(t, Position{X: -1, Y: 0}, Left.Delta())
	assert.Equal(t, Down, Up.Opposite())
	assert.Equal(t, Right, Left.Opposite())
	assert.False(t, Direction(4).Valid())
	assert.Panics(t, func() { Direction(-1).Delta() })
}
