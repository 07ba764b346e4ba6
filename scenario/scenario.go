// Package scenario reads maze run descriptions from YAML files.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/beka-birhanu/vinom-sandbox/game"
	"github.com/beka-birhanu/vinom-sandbox/generator"
)

const defaultSize = 21

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario describes one maze and how to run a program through it.
type Scenario struct {
	Name            string         `yaml:"name"`
	Width           int            `yaml:"width"`
	Height          int            `yaml:"height"`
	Generator       string         `yaml:"generator"`
	ExtraEdgeChance float64        `yaml:"extra_edge_chance"`
	Seed            *int64         `yaml:"seed"`
	MaxSteps        int            `yaml:"max_steps"`
	StopOnError     bool           `yaml:"stop_on_error"`
	Constants       map[string]int `yaml:"constants"`

	// Program is a path to the step-program, relative to the scenario file.
	Program string `yaml:"program"`
}

// Default returns the scenario used when no file is given.
func Default() *Scenario {
	s := &Scenario{}
	s.applyDefaults()
	return s
}

// Load reads and validates the scenario at path. A relative Program is resolved against the
// directory of path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Program != "" && !filepath.IsAbs(s.Program) {
		s.Program = filepath.Join(filepath.Dir(path), s.Program)
	}
	return s, nil
}

// Parse decodes a scenario, fills defaults and validates it. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Name == "" {
		s.Name = "default"
	}
	if s.Width == 0 {
		s.Width = defaultSize
	}
	if s.Height == 0 {
		s.Height = defaultSize
	}
	if s.Generator == "" {
		s.Generator = generator.NameKruskal
	}
	if s.MaxSteps == 0 {
		s.MaxSteps = game.DefaultMaxSteps
	}
}

// Validate checks the fields that do not need a maze to be generated.
func (s *Scenario) Validate() error {
	switch {
	case s.Width < 1 || s.Height < 1:
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidScenario, s.Width, s.Height)
	case s.MaxSteps < 0:
		return fmt.Errorf("%w: negative max_steps", ErrInvalidScenario)
	}
	for _, name := range generator.Names() {
		if name != s.Generator {
			continue
		}
		if err := generator.CheckChance(name, s.ExtraEdgeChance); err != nil {
			return fmt.Errorf("%w: extra_edge_chance: %w", ErrInvalidScenario, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %w %q", ErrInvalidScenario, generator.ErrUnknownGenerator, s.Generator)
}
