// Package particle implements the walkers that move particles between cells.
// Each walker runs in its own goroutine and owns its position and random
// source; the only state it shares is the World it transfers through.
package particle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/cells/world"
)

// Source is a walker's private random source. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// State is the walker lifecycle state.
type State uint8

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// NewRNG returns an independently seeded generator for walker id.
// Walkers with the same seed and id draw the same sequence.
func NewRNG(seed int64, id int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(id)))
}

// Walker is one particle's random walk.
type Walker struct {
	ID int

	world        world.World
	rng          Source
	rightBias    float64
	stepInterval time.Duration

	cell  int
	steps int
	state atomic.Uint32
}

// New creates a walker at cell 0. rng must not be shared with another walker.
func New(id int, w world.World, rng Source, rightBias float64, stepInterval time.Duration) *Walker {
	return &Walker{
		ID:           id,
		world:        w,
		rng:          rng,
		rightBias:    rightBias,
		stepInterval: stepInterval,
	}
}

// Next returns the destination for a draw m in [0,1). The walker moves right
// when m > p and left otherwise. A move that would leave [0, N) keeps the
// particle where it is.
func (w *Walker) Next(m float64) int {
	dest := w.cell - 1
	if m > w.rightBias {
		dest = w.cell + 1
	}
	if dest < 0 || dest >= w.world.Len() {
		return w.cell
	}
	return dest
}

// Step draws once and transfers the particle. Staying put still goes
// through Transfer.
func (w *Walker) Step() error {
	dest := w.Next(w.rng.Float64())
	if err := w.world.Transfer(w.cell, dest); err != nil {
		return fmt.Errorf("walker %d: %w", w.ID, err)
	}
	w.cell = dest
	w.steps++
	return nil
}

// Run steps until stop is set, pausing stepInterval after every step.
// The flag is checked after each pause, so a walker takes at most one more
// step once it flips. If ctx is cancelled during a pause Run returns
// ctx.Err(); callers treat that as a normal stop.
func (w *Walker) Run(ctx context.Context, stop *atomic.Bool) error {
	defer w.state.Store(uint32(StateStopped))

	timer := time.NewTimer(w.stepInterval)
	defer timer.Stop()

	for {
		if err := w.Step(); err != nil {
			return err
		}

		timer.Reset(w.stepInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if stop.Load() {
			return nil
		}
	}
}

// Cell returns the walker's current cell. Only safe from the walker's own
// goroutine or after Run has returned.
func (w *Walker) Cell() int {
	return w.cell
}

// Steps returns the number of completed steps. Same rules as Cell.
func (w *Walker) Steps() int {
	return w.steps
}

// State reports whether Run has returned.
func (w *Walker) State() State {
	return State(w.state.Load())
}
