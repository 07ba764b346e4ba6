package generator

import "github.com/beka-birhanu/vinom-sandbox/maze"

// RandomDFS builds a maze with an iterative randomized depth-first search from chamber (0,0).
//
// A popped chamber picks one random candidate neighbour: unvisited ones always qualify,
// visited ones qualify with probability ExtraEdgeChance, drawn again on every visit. The
// chamber is pushed back followed by the chosen neighbour. A chamber with no candidates is
// dropped.
//
// Large values of ExtraEdgeChance make fully visited chambers keep finding candidates: above
// roughly 0.15 an interior chamber pushes more often than it drains and the search may not
// terminate. Callers choose the chance.
func RandomDFS(m *maze.Maze, opts ...Option) error {
	o := buildOptions(opts)
	m.FillChambers()

	cw, ch := m.ChamberWidth(), m.ChamberHeight()
	if cw == 0 || ch == 0 {
		return m.RandomStartAndFinish(o.Rand)
	}

	inBound := func(p maze.Position) bool {
		return p.X >= 0 && p.X < cw && p.Y >= 0 && p.Y < ch
	}
	visited := make([]bool, cw*ch)
	visited[0] = true
	stack := []maze.Position{{X: 0, Y: 0}}
	candidates := make([]maze.Position, 0, len(maze.Directions))

	for len(stack) > 0 {
		cell := pop(&stack)

		candidates = candidates[:0]
		for _, d := range maze.Directions {
			nbr := cell.Add(d.Delta())
			if !inBound(nbr) {
				continue
			}
			if !visited[nbr.Y*cw+nbr.X] || (o.ExtraEdgeChance > 0 && o.Rand.Float64() < o.ExtraEdgeChance) {
				candidates = append(candidates, nbr)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		next := candidates[o.Rand.Intn(len(candidates))]
		stack = append(stack, cell, next)
		visited[next.Y*cw+next.X] = true
		if err := m.ConnectChambers(cell, next); err != nil {
			return err
		}
	}

	return m.RandomStartAndFinish(o.Rand)
}
