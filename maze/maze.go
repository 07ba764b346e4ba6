/*
Package maze provides the grid model the sandbox agent walks on.

A Maze is a rectangular grid of cells, each EMPTY, WALL or FINISH, plus the player position.
Generators work on a coarser "chamber" grid: chamber (cx, cy) is the grid cell
(2cx+1, 2cy+1), and connecting two chambers carves the wall cell between them.

The package includes chamber carving, random start/finish placement, movement that never
enters walls, and ASCII rendering of the grid.
*/
package maze

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDimensions = errors.New("invalid maze dimensions")
	ErrGeometry          = errors.New("endpoints are not aligned on one axis")
	ErrNoEmptyCells      = errors.New("maze has no empty cells")
)

// Rand is the source of randomness used for placement and generation.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Maze is a rectangular grid with a single player.
type Maze struct {
	width  int
	height int
	grid   []CellState // row-major, index y*width+x
	player Position
}

// New creates an all-empty maze with FINISH at the bottom-right cell and the player at the
// top-left cell.
func New(width, height int) (*Maze, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	m := &Maze{
		width:  width,
		height: height,
		grid:   make([]CellState, width*height),
	}
	m.grid[len(m.grid)-1] = Finish
	return m, nil
}

// Width returns the number of columns.
func (m *Maze) Width() int { return m.width }

// Height returns the number of rows.
func (m *Maze) Height() int { return m.height }

// ChamberWidth returns the number of chamber columns used during generation.
func (m *Maze) ChamberWidth() int { return (m.width - 1) / 2 }

// ChamberHeight returns the number of chamber rows used during generation.
func (m *Maze) ChamberHeight() int { return (m.height - 1) / 2 }

// Player returns the current player position.
func (m *Maze) Player() Position { return m.player }

// InBound reports whether pos lies inside the grid.
func (m *Maze) InBound(pos Position) bool {
	return pos.X >= 0 && pos.X < m.width && pos.Y >= 0 && pos.Y < m.height
}

func (m *Maze) index(pos Position) int {
	if !m.InBound(pos) {
		panic(fmt.Sprintf("maze: position %v outside %dx%d grid", pos, m.width, m.height))
	}
	return pos.Y*m.width + pos.X
}

// GetCell returns the state at pos. An out-of-range pos panics.
func (m *Maze) GetCell(pos Position) CellState {
	return m.grid[m.index(pos)]
}

// SetCell overwrites the state at pos. An out-of-range pos panics.
func (m *Maze) SetCell(pos Position, state CellState) {
	m.grid[m.index(pos)] = state
}

// Move shifts the player by delta unless the target is outside the grid or a wall.
// It reports whether the player moved.
func (m *Maze) Move(delta Position) bool {
	target := m.player.Add(delta)
	if !m.InBound(target) || m.GetCell(target) == Wall {
		return false
	}
	m.player = target
	return true
}

// Peek returns the state of the cell next to the player in direction d.
// Cells outside the grid read as Wall.
func (m *Maze) Peek(d Direction) CellState {
	target := m.player.Add(d.Delta())
	if !m.InBound(target) {
		return Wall
	}
	return m.GetCell(target)
}

// Finished reports whether the player stands on the FINISH cell.
func (m *Maze) Finished() bool {
	return m.GetCell(m.player) == Finish
}

// Fill overwrites every cell with state.
func (m *Maze) Fill(state CellState) {
	for i := range m.grid {
		m.grid[i] = state
	}
}

// FillChambers walls off the grid and carves every chamber as an isolated empty cell.
// The bottom-right chamber becomes FINISH.
func (m *Maze) FillChambers() {
	m.Fill(Wall)
	cw, ch := m.ChamberWidth(), m.ChamberHeight()
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			m.SetCell(chamberToGrid(Position{X: cx, Y: cy}), Empty)
		}
	}
	if cw > 0 && ch > 0 {
		m.SetCell(chamberToGrid(Position{X: cw - 1, Y: ch - 1}), Finish)
	}
}

// Connect sets every cell on the straight inclusive segment between a and b to EMPTY.
// a and b must share a row or a column.
func (m *Maze) Connect(a, b Position) error {
	if a.X != b.X && a.Y != b.Y {
		return fmt.Errorf("%w: %v and %v", ErrGeometry, a, b)
	}

	step := Position{X: sign(b.X - a.X), Y: sign(b.Y - a.Y)}
	for pos := a; ; pos = pos.Add(step) {
		m.SetCell(pos, Empty)
		if pos == b {
			break
		}
	}
	return nil
}

// ConnectChambers connects two chambers given in chamber coordinates.
func (m *Maze) ConnectChambers(a, b Position) error {
	return m.Connect(chamberToGrid(a), chamberToGrid(b))
}

// RandomStartAndFinish places the player and the FINISH cell on two distinct random EMPTY
// cells. Any existing FINISH is demoted to EMPTY first. With a single EMPTY cell the player
// starts on the finish.
func (m *Maze) RandomStartAndFinish(r Rand) error {
	emptyCount := 0
	for i, c := range m.grid {
		if c == Finish {
			m.grid[i] = Empty
			c = Empty
		}
		if c == Empty {
			emptyCount++
		}
	}
	if emptyCount == 0 {
		return ErrNoEmptyCells
	}

	start := r.Intn(emptyCount)
	finish := r.Intn(emptyCount)
	for emptyCount >= 2 && finish == start {
		finish = r.Intn(emptyCount)
	}

	seen := 0
	for i, c := range m.grid {
		if c != Empty {
			continue
		}
		if seen == start {
			m.player = Position{X: i % m.width, Y: i / m.width}
		}
		if seen == finish {
			m.grid[i] = Finish
		}
		seen++
	}
	return nil
}

// String renders the grid: '#' wall, ' ' empty, 'F' finish, '@' player.
func (m *Maze) String() string {
	var sb strings.Builder
	sb.Grow((m.width + 1) * m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			pos := Position{X: x, Y: y}
			if pos == m.player {
				sb.WriteByte('@')
				continue
			}
			sb.WriteByte(m.GetCell(pos).Symbol())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Cells returns a copy of the grid as rows of cell codes.
func (m *Maze) Cells() [][]CellState {
	rows := make([][]CellState, m.height)
	for y := range rows {
		rows[y] = make([]CellState, m.width)
		copy(rows[y], m.grid[y*m.width:(y+1)*m.width])
	}
	return rows
}

func chamberToGrid(c Position) Position {
	return Position{X: 2*c.X + 1, Y: 2*c.Y + 1}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
