package maze

import "fmt"

// CellState is the content of a single grid cell.
// The numeric values are the codes step-programs observe through get.
type CellState uint8

const (
	Empty  CellState = iota // Walkable cell.
	Wall                    // Blocks movement.
	Finish                  // Goal cell, walkable.
)

func (c CellState) String() string {
	switch c {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Finish:
		return "finish"
	}
	return fmt.Sprintf("CellState(%d)", uint8(c))
}

// Symbol is the character a rendered grid shows for c: '#' wall, ' ' empty, 'F' finish.
func (c CellState) Symbol() byte {
	switch c {
	case Wall:
		return '#'
	case Finish:
		return 'F'
	}
	return ' '
}

// Position is a grid coordinate. X grows to the right, Y grows downwards.
type Position struct {
	X int
	Y int
}

// Add returns the component-wise sum of p and d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four movement directions, encoded the way step-programs see them.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

var deltas = [...]Position{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
}

// Directions lists every direction in encoding order.
var Directions = []Direction{Up, Right, Down, Left}

// Valid reports whether d is one of Up, Right, Down or Left.
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

// Delta returns the unit offset for d. It panics on an invalid direction.
func (d Direction) Delta() Position {
	if !d.Valid() {
		panic(fmt.Sprintf("maze: invalid direction %d", int(d)))
	}
	return deltas[d]
}

// Opposite returns the direction pointing back.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}
