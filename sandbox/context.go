// Package sandbox runs untrusted step-programs against a fixed capability set.
//
// A step-program is Lua source. Each step gets a fresh Context and a fresh interpreter
// holding only the table, string and math libraries plus the capabilities:
//
//	move(d)                    move the agent (0 up, 1 right, 2 down, 3 left), once per step
//	get(d), look(d)            cell code next to the agent (0 empty, 1 wall, 2 finish)
//	loadBit(i), storeBit(i, v) single bits of the simulator memory
//	loadInt(i, n)              unsigned little-endian integer in bits [i, i+n), n <= 53
//	storeInt(i, n, v)          store v into bits [i, i+n), n <= 53
//	print(...)                 record a NOTE diagnostic
//
// File, OS, module loading and debug facilities are not reachable. Memory is the only state
// that survives between steps.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/memory"
)

// DefaultStepTimeout bounds a single program invocation.
const DefaultStepTimeout = time.Second

// MaxIntSize is the widest integer loadInt and storeInt accept. Lua numbers are float64, so
// wider values would lose their low bits.
const MaxIntSize = 53

var (
	ErrCompile       = errors.New("step-program does not compile")
	ErrRuntime       = errors.New("step-program failed")
	ErrTimeout       = errors.New("step-program exceeded its time budget")
	ErrContextClosed = errors.New("execution context already used")
	ErrInterrupted   = errors.New("step-program interrupted")
)

// removedGlobals are base-library entries that reach outside the sandbox.
var removedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "getfenv", "setfenv", "newproxy", "_printregs",
}

// World is the maze as seen by a step-program.
type World interface {
	Move(delta maze.Position) bool
	Peek(d maze.Direction) maze.CellState
}

// Storage is the memory as seen by a step-program.
type Storage interface {
	Load(i int) (bool, error)
	Store(i int, v bool) error
	LoadUInt(i, size int) (uint64, error)
	StoreUInt(i, size int, value int64) error
}

// Options tunes a single Run.
type Options struct {
	// Timeout bounds the invocation. Defaults to DefaultStepTimeout.
	Timeout time.Duration

	// Constants are exposed to the program as global numbers, e.g. mazeSize.
	Constants map[string]int
}

// Context is the capability surface of one step. It is used by exactly one Run.
type Context struct {
	world       World
	mem         Storage
	moved       bool
	closed      bool
	fatal       error
	diagnostics []Diagnostic
}

// NewContext binds a fresh context to world and mem.
func NewContext(world World, mem Storage) *Context {
	return &Context{world: world, mem: mem}
}

// Diagnostics returns the messages recorded so far.
func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Moved reports whether a move was attempted in this step.
func (c *Context) Moved() bool {
	return c.moved
}

func (c *Context) report(level Level, format string, args ...any) {
	c.diagnostics = append(c.diagnostics, Diagnostic{Level: level, Text: fmt.Sprintf(format, args...)})
}

// Move moves the agent one cell. Only the first move of a step is performed; blocked moves
// still count as that move.
func (c *Context) Move(d maze.Direction) {
	if !d.Valid() {
		c.report(Error, "move: invalid direction %d", int(d))
		return
	}
	if c.moved {
		c.report(Error, "move: multiple moves in one step, ignored %s", d)
		return
	}
	c.moved = true
	if !c.world.Move(d.Delta()) {
		c.report(Warning, "move: %s is blocked", d)
	}
}

// Get returns the cell next to the agent in direction d, or Empty on an invalid direction.
func (c *Context) Get(d maze.Direction) maze.CellState {
	if !d.Valid() {
		c.report(Error, "get: invalid direction %d", int(d))
		return maze.Empty
	}
	return c.world.Peek(d)
}

// LoadBit reads bit i of the memory.
func (c *Context) LoadBit(i int) (bool, error) { return c.mem.Load(i) }

// StoreBit writes bit i of the memory.
func (c *Context) StoreBit(i int, v bool) error { return c.mem.Store(i, v) }

// LoadInt reads the unsigned integer in bits [i, i+size).
func (c *Context) LoadInt(i, size int) (uint64, error) { return c.mem.LoadUInt(i, size) }

// StoreInt writes value into bits [i, i+size).
func (c *Context) StoreInt(i, size int, value int64) error { return c.mem.StoreUInt(i, size, value) }

// Run executes prog once in a fresh interpreter. Memory errors and Lua errors abort the
// program and are returned; diagnostics recorded before the failure are kept. A done parent
// aborts the program with ErrInterrupted.
func (c *Context) Run(parent context.Context, prog *Program, opts Options) (err error) {
	if c.closed {
		return ErrContextClosed
	}
	defer func() { c.closed = true }()
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	L := newState()
	defer L.Close()
	L.SetContext(ctx)
	c.install(L, opts.Constants)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrRuntime, prog.name, r)
		}
	}()

	L.Push(L.NewFunctionFromProto(prog.proto))
	perr := L.PCall(0, lua.MultRet, nil)
	switch {
	// a pcall inside the program cannot swallow a memory error
	case c.fatal != nil:
		return fmt.Errorf("%s: %w", prog.name, c.fatal)
	case perr == nil:
		return nil
	case parent.Err() != nil:
		return fmt.Errorf("%w: %w", ErrInterrupted, parent.Err())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: after %v", ErrTimeout, prog.name, timeout)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrRuntime, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrRuntime, perr)
}

func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       256,
		RegistrySize:        1024 * 16,
		MinimizeStackMemory: true,
	})

	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic(err)
		}
	}

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func (c *Context) install(L *lua.LState, constants map[string]int) {
	capabilities := map[string]lua.LGFunction{
		"move":     c.luaMove,
		"get":      c.luaGet,
		"look":     c.luaGet,
		"loadBit":  c.luaLoadBit,
		"storeBit": c.luaStoreBit,
		"loadInt":  c.luaLoadInt,
		"storeInt": c.luaStoreInt,
		"print":    c.luaPrint,
	}
	for name, fn := range capabilities {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	for _, d := range maze.Directions {
		L.SetGlobal(strings.ToUpper(d.String()), lua.LNumber(d))
	}
	for _, s := range []maze.CellState{maze.Empty, maze.Wall, maze.Finish} {
		L.SetGlobal(strings.ToUpper(s.String()), lua.LNumber(s))
	}
	for name, v := range constants {
		L.SetGlobal(name, lua.LNumber(v))
	}
}

// fail records a fatal Go error and aborts the program.
func (c *Context) fail(L *lua.LState, err error) {
	c.fatal = err
	L.RaiseError("%s", err.Error())
}

// direction converts a Lua argument to a Direction. Anything but an integral number is invalid.
func direction(v lua.LValue) (maze.Direction, bool) {
	n, ok := v.(lua.LNumber)
	if !ok || float64(n) != math.Trunc(float64(n)) {
		return -1, false
	}
	return maze.Direction(n), true
}

func checkInt(L *lua.LState, n int) int {
	f := float64(L.CheckNumber(n))
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		L.ArgError(n, "integer expected")
	}
	return int(f)
}

func (c *Context) luaMove(L *lua.LState) int {
	d, ok := direction(L.Get(1))
	if !ok {
		c.report(Error, "move: invalid direction %s", L.Get(1).String())
		return 0
	}
	c.Move(d)
	return 0
}

func (c *Context) luaGet(L *lua.LState) int {
	d, ok := direction(L.Get(1))
	if !ok {
		c.report(Error, "get: invalid direction %s", L.Get(1).String())
		L.Push(lua.LNumber(maze.Empty))
		return 1
	}
	L.Push(lua.LNumber(c.Get(d)))
	return 1
}

func (c *Context) luaLoadBit(L *lua.LState) int {
	v, err := c.LoadBit(checkInt(L, 1))
	if err != nil {
		c.fail(L, err)
		return 0
	}
	L.Push(lua.LBool(v))
	return 1
}

func (c *Context) luaStoreBit(L *lua.LState) int {
	i := checkInt(L, 1)
	var v bool
	switch arg := L.Get(2).(type) {
	case lua.LBool:
		v = bool(arg)
	case lua.LNumber:
		v = arg != 0
	default:
		if arg != lua.LNil {
			L.ArgError(2, "boolean or number expected")
			return 0
		}
	}
	if err := c.StoreBit(i, v); err != nil {
		c.fail(L, err)
	}
	return 0
}

// checkSize rejects integer widths a Lua number cannot carry exactly.
func (c *Context) checkSize(L *lua.LState, size int) bool {
	if size > MaxIntSize {
		c.fail(L, fmt.Errorf("%w: %d bits, step-programs are limited to %d", memory.ErrInvalidSize, size, MaxIntSize))
		return false
	}
	return true
}

func (c *Context) luaLoadInt(L *lua.LState) int {
	i, size := checkInt(L, 1), checkInt(L, 2)
	if !c.checkSize(L, size) {
		return 0
	}
	v, err := c.LoadInt(i, size)
	if err != nil {
		c.fail(L, err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (c *Context) luaStoreInt(L *lua.LState) int {
	i, size, value := checkInt(L, 1), checkInt(L, 2), checkInt(L, 3)
	if !c.checkSize(L, size) {
		return 0
	}
	if err := c.StoreInt(i, size, int64(value)); err != nil {
		c.fail(L, err)
	}
	return 0
}

func (c *Context) luaPrint(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	c.report(Note, "%s", strings.Join(parts, "\t"))
	return 0
}
