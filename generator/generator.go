// Package generator carves random mazes into a maze.Maze.
//
// Both generators start from maze.FillChambers, connect chambers until every chamber is
// reachable, then place the player and the finish on two random empty cells. With the default
// ExtraEdgeChance of 0 the result is a perfect maze: exactly one simple path between any two
// chambers.
package generator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/beka-birhanu/vinom-sandbox/maze"
)

// Generator names accepted by Generate.
const (
	NameKruskal = "kruskal"
	NameDFS     = "dfs"
)

var (
	ErrIndexOutOfRange  = errors.New("element index out of range")
	ErrUnknownGenerator = errors.New("unknown generator")
	ErrInvalidChance    = errors.New("invalid extra edge chance")
)

// Func is the common signature of every generator.
type Func func(m *maze.Maze, opts ...Option) error

var registry = map[string]Func{
	NameKruskal: Kruskal,
	NameDFS:     RandomDFS,
}

// CheckChance reports whether the generator called name terminates with chance. Kruskal takes
// any chance in [0, 1]; DFS keeps finding visited chambers at 1, so it needs [0, 1).
func CheckChance(name string, chance float64) error {
	switch {
	case chance < 0 || chance > 1:
		return fmt.Errorf("%w: %v not in [0, 1]", ErrInvalidChance, chance)
	case chance == 1 && name == NameDFS:
		return fmt.Errorf("%w: %s needs a chance below 1", ErrInvalidChance, name)
	}
	return nil
}

// Generate runs the generator registered under name.
func Generate(name string, m *maze.Maze, opts ...Option) error {
	gen, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
	return gen(m, opts...)
}

// Names returns the registered generator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pop removes and returns the last element of a stack of chamber positions.
func pop(s *[]maze.Position) maze.Position {
	lastIndex := len(*s) - 1
	popped := (*s)[lastIndex]
	*s = (*s)[:lastIndex]
	return popped
}
