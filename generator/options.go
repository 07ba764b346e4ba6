package generator

import (
	"math/rand"
	"time"

	"github.com/beka-birhanu/vinom-sandbox/maze"
)

// Options configures a generation pass. Use the With* functions to build one.
type Options struct {
	// ExtraEdgeChance is the probability of carving a passage between chambers that are
	// already connected. 0 yields a perfect maze, 1 opens every adjacency.
	ExtraEdgeChance float64

	// Rand drives every random choice. Defaults to a time-seeded source.
	Rand maze.Rand
}

// Option configures Options.
type Option func(*Options)

// WithExtraEdgeChance sets the probability of adding loops.
func WithExtraEdgeChance(p float64) Option {
	return func(o *Options) {
		o.ExtraEdgeChance = p
	}
}

// WithRand sets the random source.
func WithRand(r maze.Rand) Option {
	return func(o *Options) {
		o.Rand = r
	}
}

// WithSeed uses a math/rand source seeded with seed, making the layout reproducible.
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Rand = rand.New(rand.NewSource(seed))
	}
}

func buildOptions(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}
