// Package world holds the shared per-cell particle counters that every
// walker mutates.
//
// Two implementations are provided. Unsync touches the counters with no
// exclusion at all and is expected to lose updates under concurrency.
// Locked guards every cell with its own mutex and acquires pairs of guards in
// ascending index order, so concurrent transfers can never wait on each other
// in a cycle.
package world

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a cell index falls outside [0, N).
var ErrOutOfRange = errors.New("cell index out of range")

// World is the cell-count store shared by walkers and the snapshot scheduler.
type World interface {
	// Transfer moves one particle from cell from to cell to.
	// from == to is a valid no-op move.
	Transfer(from, to int) error
	// Read returns the count of cell i.
	Read(i int) (int, error)
	// Snapshot returns a copy of every count, in index order.
	Snapshot() []int
	// Len returns N.
	Len() int
}

// Total returns the sum of a snapshot of w.
func Total(w World) int {
	total := 0
	for _, c := range w.Snapshot() {
		total += c
	}
	return total
}

// initialCells returns n counts with all particles in cell 0.
func initialCells(cells, particles int) ([]int, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("world needs at least one cell, got %d", cells)
	}
	if particles < 0 {
		return nil, fmt.Errorf("negative particle count %d", particles)
	}
	c := make([]int, cells)
	c[0] = particles
	return c, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("index %d, cells %d: %w", i, n, ErrOutOfRange)
	}
	return nil
}

func checkPair(from, to, n int) error {
	if err := checkIndex(from, n); err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}
	if err := checkIndex(to, n); err != nil {
		return fmt.Errorf("transfer to: %w", err)
	}
	return nil
}
