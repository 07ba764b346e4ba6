package generator

import (
	"math/rand"
	"testing"

	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isOpen(m *maze.Maze, p maze.Position) bool {
	return m.InBound(p) && m.GetCell(p) != maze.Wall
}

// openGraph counts walkable cells, the 4-adjacencies between them, and the cells reachable
// from the first walkable cell.
func openGraph(m *maze.Maze) (nodes, edges, reachable int) {
	var first *maze.Position
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			p := maze.Position{X: x, Y: y}
			if !isOpen(m, p) {
				continue
			}
			nodes++
			if first == nil {
				first = &p
			}
			if isOpen(m, p.Add(maze.Right.Delta())) {
				edges++
			}
			if isOpen(m, p.Add(maze.Down.Delta())) {
				edges++
			}
		}
	}
	if first == nil {
		return 0, 0, 0
	}

	seen := map[maze.Position]bool{*first: true}
	queue := []maze.Position{*first}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range maze.Directions {
			nbr := cur.Add(d.Delta())
			if isOpen(m, nbr) && !seen[nbr] {
				seen[nbr] = true
				queue = append(queue, nbr)
			}
		}
	}
	return nodes, edges, len(seen)
}

func countState(m *maze.Maze, state maze.CellState) int {
	n := 0
	for _, row := range m.Cells() {
		for _, c := range row {
			if c == state {
				n++
			}
		}
	}
	return n
}

func TestPerfectMazes(t *testing.T) {
	sizes := [][2]int{{5, 5}, {11, 7}, {21, 21}, {8, 6}, {3, 9}}

	for _, name := range Names() {
		for _, size := range sizes {
			for seed := int64(0); seed < 10; seed++ {
				m, err := maze.New(size[0], size[1])
				require.NoError(t, err)

				require.NoError(t, Generate(name, m, WithSeed(seed)))

				chambers := m.ChamberWidth() * m.ChamberHeight()
				nodes, edges, reachable := openGraph(m)
				// chambers plus one carved connector per joining operation
				assert.Equal(t, 2*chambers-1, nodes, "%s %v seed %d", name, size, seed)
				assert.Equal(t, nodes-1, edges, "%s %v seed %d has a loop", name, size, seed)
				assert.Equal(t, nodes, reachable, "%s %v seed %d is disconnected", name, size, seed)
				assert.Equal(t, 1, countState(m, maze.Finish))
				assert.Equal(t, maze.Empty, m.GetCell(m.Player()))
			}
		}
	}
}

func TestKruskalOpenGrid(t *testing.T) {
	m, _ := maze.New(9, 7)

	require.NoError(t, Kruskal(m, WithSeed(3), WithExtraEdgeChance(1)))

	cw, ch := m.ChamberWidth(), m.ChamberHeight()
	connectors := (cw-1)*ch + cw*(ch-1)
	nodes, _, reachable := openGraph(m)
	assert.Equal(t, cw*ch+connectors, nodes)
	assert.Equal(t, nodes, reachable)
}

func TestExtraEdgesAddLoops(t *testing.T) {
	chances := map[string]float64{NameKruskal: 0.3, NameDFS: 0.1}
	for name, chance := range chances {
		m, _ := maze.New(21, 21)

		require.NoError(t, Generate(name, m, WithSeed(11), WithExtraEdgeChance(chance)))

		nodes, edges, reachable := openGraph(m)
		assert.Equal(t, nodes, reachable)
		assert.Greater(t, edges, nodes-1)
	}
}

func TestGeneratorsAreReproducible(t *testing.T) {
	for _, name := range Names() {
		a, _ := maze.New(15, 15)
		b, _ := maze.New(15, 15)

		require.NoError(t, Generate(name, a, WithSeed(42)))
		require.NoError(t, Generate(name, b, WithRand(rand.New(rand.NewSource(42)))))

		assert.Equal(t, a.String(), b.String())
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("Unknown generator", func(t *testing.T) {
		m, _ := maze.New(5, 5)
		assert.ErrorIs(t, Generate("prim", m), ErrUnknownGenerator)
	})

	t.Run("No chambers", func(t *testing.T) {
		for _, name := range Names() {
			m, _ := maze.New(2, 2)
			assert.ErrorIs(t, Generate(name, m, WithSeed(1)), maze.ErrNoEmptyCells)
		}
	})

	t.Run("Single chamber", func(t *testing.T) {
		for _, name := range Names() {
			m, _ := maze.New(3, 3)
			require.NoError(t, Generate(name, m, WithSeed(1)))
			assert.True(t, m.Finished())
		}
	})
}

func TestCheckChance(t *testing.T) {
	for _, c := range []struct {
		name   string
		chance float64
		valid  bool
	}{
		{NameKruskal, 0, true},
		{NameKruskal, 1, true},
		{NameDFS, 0.99, true},
		{NameDFS, 1, false},
		{NameKruskal, 1.01, false},
		{NameDFS, -0.5, false},
	} {
		err := CheckChance(c.name, c.chance)
		if c.valid {
			assert.NoError(t, err, "%s %v", c.name, c.chance)
		} else {
			assert.ErrorIs(t, err, ErrInvalidChance, "%s %v", c.name, c.chance)
		}
	}
}
