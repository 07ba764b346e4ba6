package service

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/beka-birhanu/vinom-sandbox/game"
	"github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/sandbox"
)

// Session is one learner's maze and simulator.
type Session struct {
	ID              uuid.UUID
	Learner         identity.Learner
	Generator       string
	Width           int
	Height          int
	ExtraEdgeChance float64
	Seed            int64
	Ranked          bool // Seed was drawn by the manager, so the run may enter the scoreboard.
	CreatedAt       time.Time

	sim      *game.Simulator
	lastSeen atomic.Int64
	recorded atomic.Bool
}

// Board names the scoreboard shared by sessions with the same generator, dimensions and
// extra edge chance.
func (s *Session) Board() string {
	return BoardName(s.Generator, s.Width, s.Height, s.ExtraEdgeChance)
}

// BoardName formats a scoreboard name, e.g. kruskal-21x21 for perfect mazes and
// dfs-21x21-c0.3 for mazes with loops.
func BoardName(generator string, width, height int, chance float64) string {
	if chance == 0 {
		return fmt.Sprintf("%s-%dx%d", generator, width, height)
	}
	return fmt.Sprintf("%s-%dx%d-c%s", generator, width, height, strconv.FormatFloat(chance, 'g', -1, 64))
}

// Simulator returns the session's simulator.
func (s *Session) Simulator() *game.Simulator {
	return s.sim
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time of the last access through the manager.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// View is a consistent snapshot of a session for display.
type View struct {
	ID         uuid.UUID            `json:"id"`
	Board      string               `json:"board"`
	Ranked     bool                 `json:"ranked"`
	Seed       int64                `json:"seed"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Grid       []string             `json:"grid"`
	Player     maze.Position        `json:"player"`
	Finished   bool                 `json:"finished"`
	Stats      game.Stats           `json:"stats"`
	StepErrors []sandbox.Diagnostic `json:"step_errors"`
	Simulating bool                 `json:"simulating"`
	Code       string               `json:"code"`
}

// View renders the session. The maze is read while no step can run.
func (s *Session) View() View {
	v := View{
		ID:         s.ID,
		Board:      s.Board(),
		Ranked:     s.Ranked,
		Seed:       s.Seed,
		Width:      s.Width,
		Height:     s.Height,
		Stats:      s.sim.Stats(),
		StepErrors: s.sim.StepErrors(),
		Simulating: s.sim.IsSimulating(),
		Code:       s.sim.StepCode(),
	}
	s.sim.View(func(m *maze.Maze) {
		v.Grid = grid(m)
		v.Player = m.Player()
		v.Finished = m.Finished()
	})
	if v.StepErrors == nil {
		v.StepErrors = []sandbox.Diagnostic{}
	}
	return v
}

// grid renders one string per row, with '@' on the player.
func grid(m *maze.Maze) []string {
	cells := m.Cells()
	rows := make([]string, len(cells))
	for y, row := range cells {
		line := make([]byte, len(row))
		for x, c := range row {
			line[x] = c.Symbol()
		}
		rows[y] = string(line)
	}
	p := m.Player()
	line := []byte(rows[p.Y])
	line[p.X] = '@'
	rows[p.Y] = string(line)
	return rows
}
