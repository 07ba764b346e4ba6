package generator

import "github.com/beka-birhanu/vinom-sandbox/maze"

// edge joins two adjacent chambers.
type edge struct {
	a, b maze.Position
}

// Kruskal builds a maze by joining chambers along shuffled edges with a DisjointUnion.
//
// Steps:
//  1. Wall off the grid and carve the chambers.
//  2. List every horizontal, then every vertical, chamber adjacency once.
//  3. Shuffle the list.
//  4. For each edge, join the two components if they differ. If they are already joined,
//     connect anyway with probability ExtraEdgeChance, leaving the union untouched. Without
//     extra edges the walk stops once one component holds every chamber.
//  5. Place start and finish.
func Kruskal(m *maze.Maze, opts ...Option) error {
	o := buildOptions(opts)
	m.FillChambers()

	cw, ch := m.ChamberWidth(), m.ChamberHeight()
	edges := chamberEdges(cw, ch)
	Shuffle(o.Rand, len(edges), func(i, j int) {
		edges[i], edges[j] = edges[j], edges[i]
	})

	union := NewDisjointUnion(cw * ch)
	for _, e := range edges {
		ia, ib := e.a.Y*cw+e.a.X, e.b.Y*cw+e.b.X
		ra, err := union.Find(ia)
		if err != nil {
			return err
		}
		rb, err := union.Find(ib)
		if err != nil {
			return err
		}

		if ra == rb {
			if o.ExtraEdgeChance <= 0 || o.Rand.Float64() >= o.ExtraEdgeChance {
				continue
			}
		} else if err := union.Combine(ia, ib); err != nil {
			return err
		}

		if err := m.ConnectChambers(e.a, e.b); err != nil {
			return err
		}
		if o.ExtraEdgeChance <= 0 {
			size, err := union.Size(ia)
			if err != nil {
				return err
			}
			if size == cw*ch {
				break
			}
		}
	}

	return m.RandomStartAndFinish(o.Rand)
}

func chamberEdges(cw, ch int) []edge {
	edges := make([]edge, 0, max(0, (cw-1)*ch)+max(0, cw*(ch-1)))
	for y := 0; y < ch; y++ {
		for x := 0; x+1 < cw; x++ {
			edges = append(edges, edge{a: maze.Position{X: x, Y: y}, b: maze.Position{X: x + 1, Y: y}})
		}
	}
	for y := 0; y+1 < ch; y++ {
		for x := 0; x < cw; x++ {
			edges = append(edges, edge{a: maze.Position{X: x, Y: y}, b: maze.Position{X: x, Y: y + 1}})
		}
	}
	return edges
}
