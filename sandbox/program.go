package sandbox

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Program is a compiled step-program. It holds no interpreter state and can be run by any
// number of contexts, one after another.
type Program struct {
	name   string
	source string
	proto  *lua.FunctionProto
}

// Compile parses and compiles Lua source. name appears in error messages.
func Compile(name, source string) (*Program, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	return &Program{name: name, source: source, proto: proto}, nil
}

// Name returns the chunk name given to Compile.
func (p *Program) Name() string { return p.name }

// Source returns the Lua source.
func (p *Program) Source() string { return p.source }
